// Package visualization paints projection slices onto viewport canvases.
//
// A projection is drawn centred in its canvas, scaled by the viewport zoom
// and offset by the viewport pan, using the same transform that maps user
// ROIs back into data space. While an ROI is being drawn a rectangle or line
// overlay is painted on top.
package visualization

import (
	"image/color"

	"github.com/fogleman/gg"

	"sliceview/internal/models"
	"sliceview/pkg/selection"
	"sliceview/pkg/transform"
	"sliceview/pkg/viewport"
)

// Style holds the colours and stroke sizes used when painting projections.
type Style struct {
	// Background fills the canvas behind the image
	Background color.Color

	// ROIColor is used for rectangle (Gaussian) overlays
	ROIColor color.RGBA

	// ROIFillAlpha is the opacity of the rectangle fill, 0..1
	ROIFillAlpha float64

	// LineColor is used for line (MTF) overlays
	LineColor color.RGBA

	// StrokeWidth is the overlay outline width in pixels
	StrokeWidth float64

	// EndpointRadius is the radius of the line endpoint markers
	EndpointRadius float64
}

// DefaultStyle returns the default projection look: black background,
// green ROI rectangle and magenta MTF line.
func DefaultStyle() Style {
	return Style{
		Background:     color.Black,
		ROIColor:       color.RGBA{0, 255, 0, 255},
		ROIFillAlpha:   0.1,
		LineColor:      color.RGBA{255, 0, 255, 255},
		StrokeWidth:    2,
		EndpointRadius: 4,
	}
}

// Renderer composites projection images and ROI overlays onto canvases.
type Renderer struct {
	style Style
}

// NewRenderer creates a renderer with the given style.
func NewRenderer(style Style) *Renderer {
	return &Renderer{style: style}
}

// Transform returns the coordinate transform for painting img on c with the
// view parameters of s.
func Transform(c *Canvas, s *viewport.State, img models.ProjectionImage) transform.Transform {
	w, h := c.Box()
	panX, panY := s.PanOffset()
	return transform.New(s.Zoom(), panX, panY, w, h, img.Width(), img.Height())
}

// Render paints img onto c using the zoom and pan of s. It is a no-op when
// img has not been loaded yet. Repeated calls with unchanged inputs produce
// identical pixels.
func (r *Renderer) Render(c *Canvas, s *viewport.State, img *models.ProjectionImage) {
	r.paint(c, s, img, nil)
}

// RenderWithOverlay paints img like Render and then draws the live ROI
// overlay on top.
func (r *Renderer) RenderWithOverlay(c *Canvas, s *viewport.State, img *models.ProjectionImage, ov selection.Overlay) {
	r.paint(c, s, img, &ov)
}

func (r *Renderer) paint(c *Canvas, s *viewport.State, img *models.ProjectionImage, ov *selection.Overlay) {
	if c == nil || s == nil || img == nil || img.Image == nil {
		return
	}

	if w, h := c.Box(); w == 0 || h == 0 {
		c.Reset()
		return
	}

	dc := c.Begin()
	dc.SetColor(r.style.Background)
	dc.Clear()

	t := Transform(c, s, *img)
	r.drawImage(dc, t, *img)

	if ov == nil {
		return
	}
	switch ov.Kind {
	case models.Gaussian:
		r.drawRectangle(dc, ov.Start, ov.End)
	case models.MTF:
		r.drawLine(dc, ov.Start, ov.End)
	}
}

func (r *Renderer) drawImage(dc *gg.Context, t transform.Transform, img models.ProjectionImage) {
	bounds := img.Image.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}
	x, y := t.Origin()
	w, h := t.ScaledSize()

	// The decoded raster may differ from the reported shape; scale it onto
	// the rectangle the transform expects.
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/float64(bounds.Dx()), h/float64(bounds.Dy()))
	dc.DrawImage(img.Image, -bounds.Min.X, -bounds.Min.Y)
	dc.Pop()
}

func (r *Renderer) drawRectangle(dc *gg.Context, a, b models.Point) {
	roi := models.ROI{Kind: models.Gaussian, Start: a, End: b}.Normalized()
	x, y := roi.Start.X, roi.Start.Y
	w, h := roi.End.X-roi.Start.X, roi.End.Y-roi.Start.Y

	col := r.style.ROIColor
	dc.SetColor(col)
	dc.SetLineWidth(r.style.StrokeWidth)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	dc.SetRGBA255(int(col.R), int(col.G), int(col.B), int(r.style.ROIFillAlpha*255+0.5))
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()
}

func (r *Renderer) drawLine(dc *gg.Context, a, b models.Point) {
	dc.SetColor(r.style.LineColor)
	dc.SetLineWidth(r.style.StrokeWidth)
	dc.DrawLine(a.X, a.Y, b.X, b.Y)
	dc.Stroke()

	dc.DrawCircle(a.X, a.Y, r.style.EndpointRadius)
	dc.Fill()
	dc.DrawCircle(b.X, b.Y, r.style.EndpointRadius)
	dc.Fill()
}
