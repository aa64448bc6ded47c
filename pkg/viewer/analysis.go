package viewer

import (
	"fmt"

	"sliceview/internal/models"
	"sliceview/pkg/backend"
	"sliceview/pkg/transform"
	"sliceview/pkg/visualization"
)

func (v *Viewer) transform(p models.Projection, img models.ProjectionImage) transform.Transform {
	return visualization.Transform(v.canvases[p], v.views.Get(p), img)
}

// analyze requests the analysis of a data-space ROI on slice of p. On
// success the result replaces the last one and the chart is redrawn; on
// failure the previous chart stays.
func (v *Viewer) analyze(p models.Projection, slice int, roi models.ROI) {
	req := backend.AnalysisRequest{
		CacheID:    v.cacheID,
		Projection: p.String(),
		SliceIdx:   slice,
		ROI:        backend.NewWireROI(roi),
	}
	kind := roi.Kind
	v.pending++
	v.logger.Info("requesting analysis", "kind", kind, "projection", p, "slice", slice, "roi", req.ROI)

	go func() {
		res, err := v.runAnalysis(kind, req)
		v.loop.Post(func() {
			v.pending--
			v.finishAnalysis(req.CacheID, res, err)
		})
	}()
}

// AnalysisError returns the failure of the most recent analysis request,
// or nil if it succeeded.
func (v *Viewer) AnalysisError() error { return v.analysisErr }

func (v *Viewer) runAnalysis(kind models.AnalysisKind, req backend.AnalysisRequest) (models.AnalysisResult, error) {
	switch kind {
	case models.Gaussian:
		g, err := v.backend.GaussianProfile(v.ctx, req)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return models.AnalysisResult{Kind: kind, Gaussian: g}, nil
	case models.MTF:
		m, err := v.backend.MTFAnalysis(v.ctx, req)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return models.AnalysisResult{Kind: kind, MTF: m}, nil
	default:
		return models.AnalysisResult{}, fmt.Errorf("unknown analysis kind %s", kind)
	}
}

func (v *Viewer) finishAnalysis(cacheID string, res models.AnalysisResult, err error) {
	if cacheID != v.cacheID {
		v.logger.Debug("dropping analysis from previous dataset", "kind", res.Kind, "err", err)
		return
	}
	if err != nil {
		v.analysisErr = err
		v.logger.Error("analysis failed", "err", err)
		return
	}
	v.analysisErr = nil
	v.last = res
	v.drawChart()

	switch {
	case res.Gaussian != nil:
		v.logger.Info("gaussian profile", "fwhm", res.Gaussian.FWHM, "center", res.Gaussian.Center, "r_squared", res.Gaussian.RSquared)
	case res.MTF != nil:
		v.logger.Info("mtf curve", "samples", len(res.MTF.MTF))
	}
}
