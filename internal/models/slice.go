package models

import (
	"fmt"
	"image"
)

// Projection identifies one of the three orthogonal slice views through a volume.
// The numeric value doubles as the index into fixed per-axis arrays.
type Projection int

const (
	Axial Projection = iota
	Sagittal
	Coronal
)

// NumProjections is the number of orthogonal views.
const NumProjections = 3

// Projections lists every projection in display order.
var Projections = [NumProjections]Projection{Axial, Sagittal, Coronal}

var projectionNames = [NumProjections]string{"axial", "sagittal", "coronal"}

// String returns the wire name of the projection.
func (p Projection) String() string {
	if !p.Valid() {
		return fmt.Sprintf("projection(%d)", int(p))
	}
	return projectionNames[p]
}

// Valid reports whether p is one of the three known projections.
func (p Projection) Valid() bool {
	return p >= Axial && p <= Coronal
}

// ParseProjection converts a wire name back into a Projection.
func ParseProjection(s string) (Projection, error) {
	for i, name := range projectionNames {
		if name == s {
			return Projection(i), nil
		}
	}
	return 0, fmt.Errorf("invalid projection: %s (must be axial, sagittal, or coronal)", s)
}

// Shape is the slice count of a loaded volume along each projection axis,
// in the order axial, sagittal, coronal.
type Shape [NumProjections]int

// Slices returns the number of slices available along projection p.
func (s Shape) Slices(p Projection) int {
	if !p.Valid() {
		return 0
	}
	return s[p]
}

// ProjectionImage is a decoded slice image as returned by the backend.
type ProjectionImage struct {
	// Image is the decoded raster, already windowed server-side
	Image image.Image

	// Rows and Cols are the native pixel dimensions reported by the backend
	Rows int
	Cols int
}

// Width returns the native image width in pixels.
func (p ProjectionImage) Width() int { return p.Cols }

// Height returns the native image height in pixels.
func (p ProjectionImage) Height() int { return p.Rows }
