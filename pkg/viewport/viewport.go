// Package viewport holds the per-projection view state: slice position,
// zoom, pan and the intensity window sent to the backend.
package viewport

import (
	"errors"
	"fmt"

	"sliceview/internal/models"
	"sliceview/pkg/imagecache"
)

// Zoom bounds and the window-drag gain used by the contrast gesture.
const (
	MinZoom = 0.5
	MaxZoom = 5.0

	// WindowGain converts one pixel of pointer drag into intensity units
	WindowGain = 2.0

	// MinWindowWidth is the smallest allowed window width
	MinWindowWidth = 1.0
)

// ErrSliceOutOfRange is returned by SetSlice for indices outside [0, MaxSlices).
var ErrSliceOutOfRange = errors.New("slice index out of range")

// Change describes what a mutation requires from the renderer.
type Change int

const (
	// NoChange means the state is unchanged
	NoChange Change = iota

	// Repaint means only display parameters changed; the cached image
	// can be painted again with the new zoom or pan
	Repaint

	// Refetch means a server-side render parameter changed and the image
	// must be looked up again (cache or network)
	Refetch
)

// Defaults are the initial display parameters of a fresh viewport.
type Defaults struct {
	WindowCenter float64
	WindowWidth  float64
	Zoom         float64
}

// DefaultDefaults returns the initial view of a freshly loaded dataset:
// a soft-tissue window (40/400) at unit zoom.
func DefaultDefaults() Defaults {
	return Defaults{WindowCenter: 40, WindowWidth: 400, Zoom: 1}
}

// State is the view state of a single projection.
type State struct {
	projection models.Projection

	sliceIndex int
	maxSlices  int

	zoom float64
	panX float64
	panY float64

	windowCenter float64
	windowWidth  float64

	// contrastMode routes drags to AdjustWindow instead of Pan
	contrastMode bool

	// generation is incremented before every image request so that only
	// the newest response is applied
	generation uint64
}

// New creates the state for projection p with maxSlices slices.
func New(p models.Projection, maxSlices int, d Defaults) *State {
	s := &State{projection: p}
	s.reset(maxSlices, d)
	return s
}

func (s *State) reset(maxSlices int, d Defaults) {
	if maxSlices < 0 {
		maxSlices = 0
	}
	zoom := d.Zoom
	if zoom == 0 {
		zoom = 1
	}
	width := d.WindowWidth
	if width < MinWindowWidth {
		width = MinWindowWidth
	}
	s.sliceIndex = 0
	s.maxSlices = maxSlices
	s.zoom = clampZoom(zoom)
	s.panX, s.panY = 0, 0
	s.windowCenter = d.WindowCenter
	s.windowWidth = width
	s.contrastMode = false
	// generation keeps counting across resets so that responses issued for
	// a previous dataset can never match
	s.generation++
}

// Projection returns the axis this state belongs to.
func (s *State) Projection() models.Projection { return s.projection }

// SliceIndex returns the current slice.
func (s *State) SliceIndex() int { return s.sliceIndex }

// MaxSlices returns the number of slices along this axis.
func (s *State) MaxSlices() int { return s.maxSlices }

// Zoom returns the display scale factor.
func (s *State) Zoom() float64 { return s.zoom }

// PanOffset returns the pan offset in canvas pixels.
func (s *State) PanOffset() (x, y float64) { return s.panX, s.panY }

// Window returns the intensity window center and width.
func (s *State) Window() (center, width float64) { return s.windowCenter, s.windowWidth }

// ContrastMode reports whether drags adjust the window.
func (s *State) ContrastMode() bool { return s.contrastMode }

// SetContrastMode switches drags between panning and window adjustment.
func (s *State) SetContrastMode(on bool) { s.contrastMode = on }

// Key returns the image cache key for the current render parameters.
func (s *State) Key() imagecache.Key {
	return imagecache.Key{
		Projection:   s.projection,
		Slice:        s.sliceIndex,
		WindowCenter: s.windowCenter,
		WindowWidth:  s.windowWidth,
	}
}

// SetZoom multiplies the current zoom by factor and clamps the result to
// [MinZoom, MaxZoom].
func (s *State) SetZoom(factor float64) Change {
	old := s.zoom
	s.zoom = clampZoom(s.zoom * factor)
	if s.zoom == old {
		return NoChange
	}
	return Repaint
}

// Pan moves the image by (dx, dy) canvas pixels. Pan is unbounded.
func (s *State) Pan(dx, dy float64) Change {
	if dx == 0 && dy == 0 {
		return NoChange
	}
	s.panX += dx
	s.panY += dy
	return Repaint
}

// SetSlice selects slice index. Indices outside [0, MaxSlices) are rejected
// and leave the state unchanged.
func (s *State) SetSlice(index int) (Change, error) {
	if index < 0 || index >= s.maxSlices {
		return NoChange, fmt.Errorf("%w: %s slice %d not in [0, %d)", ErrSliceOutOfRange, s.projection, index, s.maxSlices)
	}
	if index == s.sliceIndex {
		return NoChange, nil
	}
	s.sliceIndex = index
	return Refetch, nil
}

// AdjustWindow applies a contrast drag of (dx, dy) pixels: horizontal motion
// moves the window center, vertical motion changes the width. The width
// never drops below MinWindowWidth.
func (s *State) AdjustWindow(dx, dy float64) Change {
	oldCenter, oldWidth := s.windowCenter, s.windowWidth
	s.windowCenter += dx * WindowGain
	s.windowWidth += dy * WindowGain
	if s.windowWidth < MinWindowWidth {
		s.windowWidth = MinWindowWidth
	}
	if s.windowCenter == oldCenter && s.windowWidth == oldWidth {
		return NoChange
	}
	return Refetch
}

// Generation returns the generation of the most recent request.
func (s *State) Generation() uint64 { return s.generation }

// NextGeneration advances and returns the request generation. It must be
// called before every image request is dispatched.
func (s *State) NextGeneration() uint64 {
	s.generation++
	return s.generation
}

// IsCurrent reports whether a response stamped with gen may be applied.
func (s *State) IsCurrent(gen uint64) bool {
	return gen == s.generation
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
