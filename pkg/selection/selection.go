// Package selection implements the pointer-drag protocol that turns a user
// gesture on a projection into a region of interest for analysis.
//
// A selection moves through Idle -> Arming -> Drawing -> Idle. All
// in-progress gesture data lives in the Machine, so finishing or cancelling
// a selection leaves nothing attached to the viewport. Only one selection
// may be in progress at a time across all projections.
package selection

import (
	"errors"
	"fmt"

	"sliceview/internal/models"
	"sliceview/pkg/transform"
)

var (
	// ErrSelectionActive is returned when a selection is started while
	// another one is already in progress on any projection.
	ErrSelectionActive = errors.New("selection already in progress")

	// ErrInvalidTransition is returned for events that do not apply to the
	// current state.
	ErrInvalidTransition = errors.New("invalid selection transition")
)

// State is the phase of the selection gesture.
type State int

const (
	Idle State = iota
	Arming
	Drawing
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Arming:
		return "arming"
	case Drawing:
		return "drawing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Cursor is the pointer affordance shown over a projection.
type Cursor int

const (
	// CursorGrab is the default, pan-ready cursor
	CursorGrab Cursor = iota

	// CursorCrosshair marks a projection awaiting or drawing an ROI
	CursorCrosshair
)

// Overlay is the live shape drawn while the user drags.
type Overlay struct {
	Kind  models.AnalysisKind
	Start models.Point
	End   models.Point
}

// Machine drives a single ROI selection.
type Machine struct {
	state      State
	projection models.Projection
	kind       models.AnalysisKind
	anchor     models.Point
	current    models.Point
}

// NewMachine returns an idle selection machine.
func NewMachine() *Machine {
	return &Machine{}
}

// State returns the current phase.
func (m *Machine) State() State { return m.state }

// Projection returns the projection of the selection in progress.
// The value is meaningless while Idle.
func (m *Machine) Projection() models.Projection { return m.projection }

// Kind returns the requested analysis kind of the selection in progress.
func (m *Machine) Kind() models.AnalysisKind { return m.kind }

// Active reports whether projection p has a selection in progress. Pan,
// zoom and contrast gestures are suppressed on p while this is true.
func (m *Machine) Active(p models.Projection) bool {
	return m.state != Idle && m.projection == p
}

// Busy reports whether any projection has a selection in progress.
func (m *Machine) Busy() bool { return m.state != Idle }

// Cursor returns the affordance to show over projection p.
func (m *Machine) Cursor(p models.Projection) Cursor {
	if m.Active(p) {
		return CursorCrosshair
	}
	return CursorGrab
}

// Start arms a selection of the given kind on projection p.
func (m *Machine) Start(p models.Projection, kind models.AnalysisKind) error {
	if m.state != Idle {
		return fmt.Errorf("%w: %s is %s", ErrSelectionActive, m.projection, m.state)
	}
	if kind != models.Gaussian && kind != models.MTF {
		return fmt.Errorf("%w: unknown analysis %s", ErrInvalidTransition, kind)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, p)
	}
	m.state = Arming
	m.projection = p
	m.kind = kind
	return nil
}

// PointerDown records the ROI anchor in canvas coordinates.
func (m *Machine) PointerDown(p models.Point) error {
	if m.state != Arming {
		return fmt.Errorf("%w: pointer down while %s", ErrInvalidTransition, m.state)
	}
	m.anchor = p
	m.current = p
	m.state = Drawing
	return nil
}

// PointerMove updates the live overlay. It returns false when no overlay
// should be drawn because the machine is not drawing.
func (m *Machine) PointerMove(p models.Point) (Overlay, bool) {
	if m.state != Drawing {
		return Overlay{}, false
	}
	m.current = p
	return m.overlay(), true
}

// Overlay returns the current live overlay, if drawing.
func (m *Machine) Overlay() (Overlay, bool) {
	if m.state != Drawing {
		return Overlay{}, false
	}
	return m.overlay(), true
}

func (m *Machine) overlay() Overlay {
	return Overlay{Kind: m.kind, Start: m.anchor, End: m.current}
}

// PointerUp finishes the drag and returns the canvas-space ROI in the
// order it was drawn. The machine returns to Idle.
func (m *Machine) PointerUp(p models.Point) (models.ROI, error) {
	if m.state != Drawing {
		return models.ROI{}, fmt.Errorf("%w: pointer up while %s", ErrInvalidTransition, m.state)
	}
	roi := models.ROI{Kind: m.kind, Start: m.anchor, End: p}
	m.reset()
	return roi, nil
}

// Cancel abandons any selection in progress.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	*m = Machine{}
}

// ToDataROI converts a canvas-space ROI to data space with t. Rectangle
// ROIs are normalized to (min,min)-(max,max); line ROIs keep their drawn
// order.
func ToDataROI(roi models.ROI, t transform.Transform) models.ROI {
	out := models.ROI{
		Kind:  roi.Kind,
		Start: t.PointToData(roi.Start),
		End:   t.PointToData(roi.End),
	}
	return out.Normalized()
}
