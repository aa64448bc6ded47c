// Package viewer ties the slice viewer together: it owns the three
// viewports, the image cache, the ROI selection and the analysis chart, and
// turns user gestures into backend requests and repaints.
//
// A Viewer is not safe for concurrent use. All methods must be called from
// the goroutine that drives its Loop; network calls run on worker
// goroutines and their completions are posted back to the loop.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"sliceview/internal/models"
	"sliceview/pkg/backend"
	"sliceview/pkg/chart"
	"sliceview/pkg/imagecache"
	"sliceview/pkg/selection"
	"sliceview/pkg/viewport"
	"sliceview/pkg/visualization"
)

var (
	// ErrNoDataset is returned by operations that need a loaded volume.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrImageNotCached is returned when an ROI is finished on a projection
	// whose current image has not been fetched.
	ErrImageNotCached = errors.New("projection image not cached")
)

// Backend is the analysis service the viewer talks to. *backend.Client
// implements it.
type Backend interface {
	LoadDataset(ctx context.Context, files []backend.File) (backend.Dataset, error)
	GetProjection(ctx context.Context, req backend.ProjectionRequest) (models.ProjectionImage, error)
	GaussianProfile(ctx context.Context, req backend.AnalysisRequest) (*models.GaussianResult, error)
	MTFAnalysis(ctx context.Context, req backend.AnalysisRequest) (*models.MTFResult, error)
}

// Options configures a Viewer. Zero values fall back to defaults.
type Options struct {
	// Defaults is the initial view of every projection after a load
	Defaults viewport.Defaults

	// CacheCapacity bounds the number of cached projection images
	CacheCapacity int

	// WheelZoomStep is the relative zoom change per wheel notch
	WheelZoomStep float64

	// ViewportWidth and ViewportHeight size the projection canvases
	ViewportWidth  int
	ViewportHeight int

	// ChartWidth and ChartHeight size the analysis canvas
	ChartWidth  int
	ChartHeight int

	ProjectionStyle *visualization.Style
	ChartStyle      *chart.Style

	// Logger receives diagnostics; nil discards them
	Logger *log.Logger
}

// Default sizes and gesture constants.
const (
	DefaultWheelZoomStep  = 0.1
	DefaultViewportWidth  = 512
	DefaultViewportHeight = 512
	DefaultChartWidth     = 800
	DefaultChartHeight    = 400
)

// Viewer is the controller of one viewing session.
type Viewer struct {
	loop    *Loop
	backend Backend
	logger  *log.Logger

	// ctx scopes every backend call; cancel aborts them on Close
	ctx    context.Context
	cancel context.CancelFunc

	defaults  viewport.Defaults
	wheelStep float64

	// views is nil until a dataset has loaded
	views    *viewport.Set
	cache    *imagecache.Cache
	sel      *selection.Machine
	renderer *visualization.Renderer
	canvases [models.NumProjections]*visualization.Canvas

	// shown is the key last painted on each canvas
	shown   [models.NumProjections]imagecache.Key
	painted [models.NumProjections]bool

	charts      *chart.Renderer
	chartCanvas *visualization.Canvas
	last        models.AnalysisResult
	analysisErr error

	cacheID string
	err     error

	// loadGen discards completions of superseded dataset loads
	loadGen uint64

	// pending counts dispatched requests whose completion has not run yet
	pending int
}

// New creates a viewer that sends requests to b.
func New(b Backend, opts Options) (*Viewer, error) {
	if b == nil {
		return nil, fmt.Errorf("viewer requires a backend")
	}

	cache, err := imagecache.New(opts.CacheCapacity)
	if err != nil {
		return nil, err
	}

	chartStyle := chart.DefaultStyle()
	if opts.ChartStyle != nil {
		chartStyle = *opts.ChartStyle
	}
	charts, err := chart.NewRenderer(chartStyle)
	if err != nil {
		return nil, fmt.Errorf("error creating chart renderer: %w", err)
	}

	projStyle := visualization.DefaultStyle()
	if opts.ProjectionStyle != nil {
		projStyle = *opts.ProjectionStyle
	}

	defaults := opts.Defaults
	if defaults == (viewport.Defaults{}) {
		defaults = viewport.DefaultDefaults()
	}
	step := opts.WheelZoomStep
	if step <= 0 || step >= 1 {
		step = DefaultWheelZoomStep
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &Viewer{
		loop:        NewLoop(0),
		backend:     b,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		defaults:    defaults,
		wheelStep:   step,
		cache:       cache,
		sel:         selection.NewMachine(),
		renderer:    visualization.NewRenderer(projStyle),
		charts:      charts,
		chartCanvas: visualization.NewCanvas(orDefault(opts.ChartWidth, DefaultChartWidth), orDefault(opts.ChartHeight, DefaultChartHeight)),
	}
	w := orDefault(opts.ViewportWidth, DefaultViewportWidth)
	h := orDefault(opts.ViewportHeight, DefaultViewportHeight)
	for _, p := range models.Projections {
		v.canvases[p] = visualization.NewCanvas(w, h)
	}
	return v, nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// Loop returns the event loop that serializes this viewer.
func (v *Viewer) Loop() *Loop { return v.loop }

// Close aborts in-flight requests and stops the loop.
func (v *Viewer) Close() {
	v.cancel()
	v.loop.Stop()
}

// Settle runs loop events until every dispatched request has completed.
func (v *Viewer) Settle(ctx context.Context) error {
	for v.pending > 0 {
		if err := v.loop.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the number of requests still in flight.
func (v *Viewer) Pending() int { return v.pending }

// CacheID returns the session token of the loaded dataset, or "".
func (v *Viewer) CacheID() string { return v.cacheID }

// Error returns the user-visible error of the last dataset load.
func (v *Viewer) Error() error { return v.err }

// Loaded reports whether a dataset is ready.
func (v *Viewer) Loaded() bool { return v.views != nil }

// Viewport returns the view state of p, or nil before a dataset is loaded.
func (v *Viewer) Viewport(p models.Projection) *viewport.State {
	if v.views == nil || !p.Valid() {
		return nil
	}
	return v.views.Get(p)
}

// Canvas returns the canvas of projection p.
func (v *Viewer) Canvas(p models.Projection) *visualization.Canvas {
	if !p.Valid() {
		return nil
	}
	return v.canvases[p]
}

// ChartCanvas returns the analysis chart canvas.
func (v *Viewer) ChartCanvas() *visualization.Canvas { return v.chartCanvas }

// Displayed returns the key of the image currently painted on p.
func (v *Viewer) Displayed(p models.Projection) (imagecache.Key, bool) {
	if !p.Valid() {
		return imagecache.Key{}, false
	}
	return v.shown[p], v.painted[p]
}

// LastResult returns the most recent analysis result.
func (v *Viewer) LastResult() models.AnalysisResult { return v.last }

// CacheLen returns the number of cached projection images.
func (v *Viewer) CacheLen() int { return v.cache.Len() }

// LoadDataset uploads files and, once the backend answers, resets every
// viewport and the cache and fetches slice 0 of all three projections.
// A failure is kept in Error and leaves the viewer without a dataset.
func (v *Viewer) LoadDataset(files []backend.File) {
	v.sel.Cancel()
	v.loadGen++
	gen := v.loadGen
	v.pending++

	v.logger.Info("loading dataset", "files", len(files))
	go func() {
		ds, err := v.backend.LoadDataset(v.ctx, files)
		v.loop.Post(func() {
			v.pending--
			v.finishLoad(gen, ds, err)
		})
	}()
}

func (v *Viewer) finishLoad(gen uint64, ds backend.Dataset, err error) {
	if gen != v.loadGen {
		v.logger.Debug("dropping superseded dataset load", "cache_id", ds.CacheID)
		return
	}
	if err != nil {
		v.err = fmt.Errorf("error loading dataset: %w", err)
		v.unload()
		v.logger.Error("dataset load failed", "err", err)
		return
	}

	v.err = nil
	v.cacheID = ds.CacheID
	v.cache.Clear()
	v.sel.Cancel()
	if v.views == nil {
		v.views = viewport.NewSet(ds.Shape, v.defaults)
	} else {
		v.views.Reset(ds.Shape)
	}
	v.last = models.AnalysisResult{}
	v.drawChart()
	v.painted = [models.NumProjections]bool{}

	v.logger.Info("dataset loaded",
		"cache_id", ds.CacheID,
		"axial", ds.Shape[models.Axial],
		"sagittal", ds.Shape[models.Sagittal],
		"coronal", ds.Shape[models.Coronal])

	for _, p := range models.Projections {
		v.refresh(p)
	}
}

func (v *Viewer) unload() {
	if v.views != nil {
		// bump generations so in-flight fetches are discarded
		v.views.Each(func(s *viewport.State) { s.NextGeneration() })
	}
	v.views = nil
	v.cacheID = ""
	v.cache.Clear()
	v.last = models.AnalysisResult{}
	v.painted = [models.NumProjections]bool{}
	for _, c := range v.canvases {
		c.Reset()
	}
	v.chartCanvas.Reset()
}

// refresh shows the current key of p, from the cache when possible and
// otherwise by fetching it. Every call supersedes earlier requests for p.
func (v *Viewer) refresh(p models.Projection) {
	st := v.views.Get(p)
	gen := st.NextGeneration()
	key := st.Key()

	if v.cache.Contains(key) {
		v.paint(p)
		return
	}

	req := backend.ProjectionRequest{
		CacheID:      v.cacheID,
		Projection:   p.String(),
		SliceIdx:     key.Slice,
		WindowCenter: key.WindowCenter,
		WindowWidth:  key.WindowWidth,
	}
	v.pending++
	v.logger.Debug("fetching projection", "key", key, "generation", gen)
	go func() {
		img, err := v.backend.GetProjection(v.ctx, req)
		v.loop.Post(func() {
			v.pending--
			v.finishFetch(st, gen, key, req.CacheID, img, err)
		})
	}()
}

func (v *Viewer) finishFetch(st *viewport.State, gen uint64, key imagecache.Key, cacheID string, img models.ProjectionImage, err error) {
	if err != nil {
		v.logger.Error("projection fetch failed", "key", key, "err", err)
		return
	}
	if cacheID != v.cacheID {
		v.logger.Debug("dropping projection from previous dataset", "key", key)
		return
	}
	v.cache.Put(key, img)

	if !st.IsCurrent(gen) {
		v.logger.Debug("dropping stale projection", "key", key, "generation", gen, "current", st.Generation())
		return
	}
	v.paint(st.Projection())
}

// paint draws the cached image for the current key of p, with the live ROI
// overlay when p is being drawn on.
func (v *Viewer) paint(p models.Projection) {
	if v.views == nil {
		return
	}
	st := v.views.Get(p)
	key := st.Key()
	img, ok := v.cache.Get(key)
	if !ok {
		return
	}

	if ov, drawing := v.sel.Overlay(); drawing && v.sel.Active(p) {
		v.renderer.RenderWithOverlay(v.canvases[p], st, &img, ov)
	} else {
		v.renderer.Render(v.canvases[p], st, &img)
	}
	v.shown[p] = key
	v.painted[p] = true
}

// ResizeViewport changes the on-screen size of p's canvas and repaints it.
func (v *Viewer) ResizeViewport(p models.Projection, w, h int) {
	if !p.Valid() {
		return
	}
	v.canvases[p].SetBox(w, h)
	v.paint(p)
}

// ResizeChart changes the chart size and redraws the last result without a
// new request.
func (v *Viewer) ResizeChart(w, h int) {
	v.chartCanvas.SetBox(w, h)
	v.drawChart()
}

func (v *Viewer) drawChart() {
	v.charts.Draw(v.chartCanvas, v.last)
}

func (v *Viewer) requireDataset() error {
	if v.views == nil {
		return ErrNoDataset
	}
	return nil
}
