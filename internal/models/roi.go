package models

import (
	"fmt"
	"math"
)

// AnalysisKind selects which analysis an ROI is drawn for.
type AnalysisKind int

const (
	// Gaussian draws a rectangle ROI and requests an intensity profile fit
	Gaussian AnalysisKind = iota + 1

	// MTF draws a line ROI and requests a modulation transfer function
	MTF
)

// String returns the wire tag of the analysis kind.
func (k AnalysisKind) String() string {
	switch k {
	case Gaussian:
		return "gaussian"
	case MTF:
		return "mtf"
	default:
		return fmt.Sprintf("analysis(%d)", int(k))
	}
}

// ParseAnalysisKind converts a wire tag into an AnalysisKind.
func ParseAnalysisKind(s string) (AnalysisKind, error) {
	switch s {
	case "gaussian":
		return Gaussian, nil
	case "mtf":
		return MTF, nil
	}
	return 0, fmt.Errorf("invalid analysis kind: %s (must be gaussian or mtf)", s)
}

// Point is a 2-D position, either in canvas pixels or in data pixels
// depending on context.
type Point struct {
	X, Y float64
}

// ROI is a user-drawn region of interest. Start and End are kept in the
// order they were drawn until Normalized is called.
type ROI struct {
	Kind  AnalysisKind
	Start Point
	End   Point
}

// Normalized returns the ROI with rectangle corners reordered to
// (min,min)-(max,max). Line ROIs keep their drawn order.
func (r ROI) Normalized() ROI {
	if r.Kind != Gaussian {
		return r
	}
	return ROI{
		Kind:  r.Kind,
		Start: Point{X: math.Min(r.Start.X, r.End.X), Y: math.Min(r.Start.Y, r.End.Y)},
		End:   Point{X: math.Max(r.Start.X, r.End.X), Y: math.Max(r.Start.Y, r.End.Y)},
	}
}

// Rounded returns the ROI with every coordinate rounded to the nearest
// integer pixel, which is what the analysis endpoints expect. Halves round
// up, so -2.5 becomes -2.
func (r ROI) Rounded() ROI {
	return ROI{
		Kind:  r.Kind,
		Start: Point{X: roundHalfUp(r.Start.X), Y: roundHalfUp(r.Start.Y)},
		End:   Point{X: roundHalfUp(r.End.X), Y: roundHalfUp(r.End.Y)},
	}
}

func roundHalfUp(v float64) float64 { return math.Floor(v + 0.5) }
