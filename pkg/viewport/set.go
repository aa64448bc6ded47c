package viewport

import "sliceview/internal/models"

// Set is the fixed group of three viewports, one per projection, indexed by
// models.Projection.
type Set struct {
	states   [models.NumProjections]*State
	defaults Defaults
}

// NewSet creates one viewport per projection with slice counts from shape.
func NewSet(shape models.Shape, d Defaults) *Set {
	set := &Set{defaults: d}
	for _, p := range models.Projections {
		set.states[p] = New(p, shape.Slices(p), d)
	}
	return set
}

// Get returns the viewport for projection p. It panics for an invalid p,
// which is a programming error.
func (s *Set) Get(p models.Projection) *State {
	return s.states[p]
}

// Reset reinitialises all three viewports for a newly loaded volume. Every
// slice index returns to 0 and MaxSlices is taken from shape.
func (s *Set) Reset(shape models.Shape) {
	for _, p := range models.Projections {
		s.states[p].reset(shape.Slices(p), s.defaults)
	}
}

// Each calls fn for every viewport in display order.
func (s *Set) Each(fn func(*State)) {
	for _, st := range s.states {
		fn(st)
	}
}
