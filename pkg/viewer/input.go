package viewer

import (
	"fmt"

	"sliceview/internal/models"
	"sliceview/pkg/selection"
	"sliceview/pkg/viewport"
)

// SetSlice moves projection p to slice index and shows it.
func (v *Viewer) SetSlice(p models.Projection, index int) error {
	if err := v.requireDataset(); err != nil {
		return err
	}
	if !p.Valid() {
		return fmt.Errorf("invalid projection %s", p)
	}
	change, err := v.views.Get(p).SetSlice(index)
	if err != nil {
		return err
	}
	v.apply(p, change)
	return nil
}

// Wheel zooms projection p by one notch. A positive deltaY zooms out, like
// scrolling down.
func (v *Viewer) Wheel(p models.Projection, deltaY float64) {
	st := v.gestureTarget(p)
	if st == nil || deltaY == 0 {
		return
	}
	factor := 1 + v.wheelStep
	if deltaY > 0 {
		factor = 1 - v.wheelStep
	}
	v.apply(p, st.SetZoom(factor))
}

// Zoom multiplies the zoom of p by factor, within the zoom bounds.
func (v *Viewer) Zoom(p models.Projection, factor float64) {
	st := v.gestureTarget(p)
	if st == nil || factor <= 0 {
		return
	}
	v.apply(p, st.SetZoom(factor))
}

// Drag applies a pointer drag of (dx, dy) canvas pixels to p. It pans the
// image, or adjusts the intensity window when contrast mode is on.
func (v *Viewer) Drag(p models.Projection, dx, dy float64) {
	st := v.gestureTarget(p)
	if st == nil {
		return
	}
	if st.ContrastMode() {
		v.apply(p, st.AdjustWindow(dx, dy))
		return
	}
	v.apply(p, st.Pan(dx, dy))
}

// ToggleContrast switches the drag gesture of p between pan and window
// adjustment and returns the new mode.
func (v *Viewer) ToggleContrast(p models.Projection) bool {
	st := v.Viewport(p)
	if st == nil {
		return false
	}
	st.SetContrastMode(!st.ContrastMode())
	v.logger.Debug("contrast mode", "projection", p, "on", st.ContrastMode())
	return st.ContrastMode()
}

// gestureTarget returns the state of p if pan, zoom and contrast gestures
// are currently allowed on it.
func (v *Viewer) gestureTarget(p models.Projection) *viewport.State {
	st := v.Viewport(p)
	if st == nil || v.sel.Active(p) {
		return nil
	}
	return st
}

func (v *Viewer) apply(p models.Projection, change viewport.Change) {
	switch change {
	case viewport.Repaint:
		v.paint(p)
	case viewport.Refetch:
		v.refresh(p)
	}
}

// Cursor returns the pointer affordance over p. Contrast mode shows the
// crosshair like an ROI selection does.
func (v *Viewer) Cursor(p models.Projection) selection.Cursor {
	if st := v.Viewport(p); st != nil && st.ContrastMode() {
		return selection.CursorCrosshair
	}
	return v.sel.Cursor(p)
}

// SelectionState returns the phase of the ROI selection.
func (v *Viewer) SelectionState() selection.State {
	return v.sel.State()
}

// StartSelection arms an ROI selection of kind on p. Only one selection
// may be in progress across all projections.
func (v *Viewer) StartSelection(p models.Projection, kind models.AnalysisKind) error {
	if err := v.requireDataset(); err != nil {
		return err
	}
	if err := v.sel.Start(p, kind); err != nil {
		return err
	}
	v.logger.Debug("selection armed", "projection", p, "kind", kind)
	return nil
}

// PointerDown anchors the ROI on p.
func (v *Viewer) PointerDown(p models.Projection, pt models.Point) error {
	if !v.sel.Active(p) {
		return fmt.Errorf("%w: no selection on %s", selection.ErrInvalidTransition, p)
	}
	return v.sel.PointerDown(pt)
}

// PointerMove updates the live ROI overlay on p.
func (v *Viewer) PointerMove(p models.Projection, pt models.Point) {
	if !v.sel.Active(p) {
		return
	}
	if _, ok := v.sel.PointerMove(pt); ok {
		v.paint(p)
	}
}

// PointerUp finishes the ROI on p, converts it to data coordinates and
// requests the analysis. The projection is repainted without the overlay.
func (v *Viewer) PointerUp(p models.Projection, pt models.Point) error {
	if !v.sel.Active(p) {
		return fmt.Errorf("%w: no selection on %s", selection.ErrInvalidTransition, p)
	}
	roi, err := v.sel.PointerUp(pt)
	if err != nil {
		return err
	}

	st := v.views.Get(p)
	img, ok := v.cache.Get(st.Key())
	if !ok {
		v.logger.Error("cannot analyze ROI", "projection", p, "key", st.Key(), "err", ErrImageNotCached)
		return fmt.Errorf("%w: %s", ErrImageNotCached, st.Key())
	}

	t := v.transform(p, img)
	data := selection.ToDataROI(roi, t)
	v.analyze(p, st.SliceIndex(), data)
	v.paint(p)
	return nil
}

// ToCanvas maps a data-space point on the current image of p to canvas
// coordinates.
func (v *Viewer) ToCanvas(p models.Projection, pt models.Point) (models.Point, error) {
	if err := v.requireDataset(); err != nil {
		return models.Point{}, err
	}
	if !p.Valid() {
		return models.Point{}, fmt.Errorf("invalid projection %s", p)
	}
	st := v.views.Get(p)
	img, ok := v.cache.Get(st.Key())
	if !ok {
		return models.Point{}, fmt.Errorf("%w: %s", ErrImageNotCached, st.Key())
	}
	return v.transform(p, img).PointToCanvas(pt), nil
}

// CancelSelection abandons the ROI in progress and removes its overlay.
func (v *Viewer) CancelSelection() {
	if !v.sel.Busy() {
		return
	}
	p := v.sel.Projection()
	v.sel.Cancel()
	v.paint(p)
}
