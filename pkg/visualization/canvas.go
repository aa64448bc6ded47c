package visualization

import (
	"image"

	"github.com/fogleman/gg"
)

// Canvas is an in-memory drawing surface standing in for an on-screen
// viewport. Its box size is set by the host (window layout); the backing
// raster is reallocated to that size at the start of every paint, the same
// way a browser canvas is cleared when its width and height are assigned.
type Canvas struct {
	// boxWidth and boxHeight are the on-screen size of the viewport
	boxWidth  int
	boxHeight int

	// img is the last painted frame, nil until the first paint
	img *image.RGBA
}

// NewCanvas creates a canvas whose on-screen box is w x h pixels.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.SetBox(w, h)
	return c
}

// SetBox records a new on-screen size. The next paint uses it.
func (c *Canvas) SetBox(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c.boxWidth, c.boxHeight = w, h
}

// Box returns the on-screen size.
func (c *Canvas) Box() (w, h int) {
	return c.boxWidth, c.boxHeight
}

// Width returns the width of the painted raster.
func (c *Canvas) Width() int {
	if c.img == nil {
		return 0
	}
	return c.img.Bounds().Dx()
}

// Height returns the height of the painted raster.
func (c *Canvas) Height() int {
	if c.img == nil {
		return 0
	}
	return c.img.Bounds().Dy()
}

// Image returns the last painted frame, or nil if nothing was painted.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Begin sizes the raster to the on-screen box and returns a drawing
// context over it. Any previous content is discarded.
func (c *Canvas) Begin() *gg.Context {
	c.img = image.NewRGBA(image.Rect(0, 0, c.boxWidth, c.boxHeight))
	return gg.NewContextForRGBA(c.img)
}

// Reset drops the painted frame and leaves an empty raster of the box size.
func (c *Canvas) Reset() {
	c.img = image.NewRGBA(image.Rect(0, 0, c.boxWidth, c.boxHeight))
}
