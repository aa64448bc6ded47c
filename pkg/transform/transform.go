// Package transform maps between canvas pixels and native image (data) pixels
// for a zoomed and panned viewport.
//
// The image is always centred in the canvas first; pan offsets and zoom are
// applied on top of that centred placement.
package transform

import "sliceview/internal/models"

// Transform holds the view parameters needed to convert coordinates.
type Transform struct {
	// Zoom is the display scale factor, image pixels to canvas pixels
	Zoom float64

	// PanX and PanY are canvas-pixel offsets from the centred position
	PanX float64
	PanY float64

	// CanvasWidth and CanvasHeight are the canvas dimensions in pixels
	CanvasWidth  float64
	CanvasHeight float64

	// ImageWidth and ImageHeight are the native slice dimensions
	// (columns and rows respectively)
	ImageWidth  float64
	ImageHeight float64
}

// New creates a transform for the given view, canvas and image dimensions.
func New(zoom, panX, panY float64, canvasW, canvasH, imageW, imageH int) Transform {
	return Transform{
		Zoom:         zoom,
		PanX:         panX,
		PanY:         panY,
		CanvasWidth:  float64(canvasW),
		CanvasHeight: float64(canvasH),
		ImageWidth:   float64(imageW),
		ImageHeight:  float64(imageH),
	}
}

// Origin returns the canvas position of the image's top-left corner.
func (t Transform) Origin() (x, y float64) {
	x = (t.CanvasWidth-t.ImageWidth*t.Zoom)/2 + t.PanX
	y = (t.CanvasHeight-t.ImageHeight*t.Zoom)/2 + t.PanY
	return x, y
}

// ScaledSize returns the displayed image size in canvas pixels.
func (t Transform) ScaledSize() (w, h float64) {
	return t.ImageWidth * t.Zoom, t.ImageHeight * t.Zoom
}

// ToCanvas converts a data-space position to canvas pixels.
func (t Transform) ToCanvas(dataX, dataY float64) (canvasX, canvasY float64) {
	ox, oy := t.Origin()
	return ox + dataX*t.Zoom, oy + dataY*t.Zoom
}

// ToData converts a canvas position to data-space pixels. It is the exact
// inverse of ToCanvas up to floating-point rounding.
func (t Transform) ToData(canvasX, canvasY float64) (dataX, dataY float64) {
	ox, oy := t.Origin()
	return (canvasX - ox) / t.Zoom, (canvasY - oy) / t.Zoom
}

// PointToData is ToData for a models.Point.
func (t Transform) PointToData(p models.Point) models.Point {
	x, y := t.ToData(p.X, p.Y)
	return models.Point{X: x, Y: y}
}

// PointToCanvas is ToCanvas for a models.Point.
func (t Transform) PointToCanvas(p models.Point) models.Point {
	x, y := t.ToCanvas(p.X, p.Y)
	return models.Point{X: x, Y: y}
}
