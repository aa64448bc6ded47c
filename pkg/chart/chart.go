// Package chart draws the analysis panel: the Gaussian intensity profile of
// a rectangle ROI and the MTF curve of a line ROI.
//
// Both charts share one layout: a fixed margin, L-shaped axes, five grid
// intervals with labels per axis and axis titles. Degenerate data never
// produces an error; the panel is left with just its background.
package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"gonum.org/v1/gonum/floats"

	"sliceview/internal/models"
	"sliceview/pkg/visualization"
)

// Layout constants shared by both charts.
const (
	Margin   = 40
	NumTicks = 5

	pointRadius = 2
	lineHeight  = 15
)

// Style holds the chart palette.
type Style struct {
	Background color.Color
	Axis       color.Color
	Grid       color.Color
	Text       color.Color
	Points     color.Color
	Fit        color.Color
	Curve      color.Color

	// MarkerColors is indexed like MTFTargets
	MarkerColors []color.Color
}

// DefaultStyle returns the dark chart palette.
func DefaultStyle() Style {
	return Style{
		Background:   hex("#1e293b"),
		Axis:         hex("#94a3b8"),
		Grid:         hex("#334155"),
		Text:         hex("#e2e8f0"),
		Points:       hex("#3b82f6"),
		Fit:          hex("#ef4444"),
		Curve:        hex("#06b6d4"),
		MarkerColors: []color.Color{hex("#fbbf24"), hex("#f87171")},
	}
}

// Renderer paints analysis results. It is not safe for concurrent use
// because font faces keep per-face glyph caches.
type Renderer struct {
	style  Style
	small  font.Face
	medium font.Face
	bold   font.Face
}

// NewRenderer creates a chart renderer using the embedded Go fonts.
func NewRenderer(style Style) (*Renderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("error parsing regular font: %w", err)
	}
	heavy, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("error parsing bold font: %w", err)
	}

	r := &Renderer{style: style}
	if r.small, err = newFace(regular, 10); err != nil {
		return nil, err
	}
	if r.medium, err = newFace(regular, 12); err != nil {
		return nil, err
	}
	if r.bold, err = newFace(heavy, 12); err != nil {
		return nil, err
	}
	return r, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating %gpt font face: %w", size, err)
	}
	return face, nil
}

// Draw paints whichever chart matches res.Kind. An empty result paints the
// background only.
func (r *Renderer) Draw(c *visualization.Canvas, res models.AnalysisResult) {
	switch {
	case res.Kind == models.Gaussian && res.Gaussian != nil:
		r.DrawGaussian(c, res.Gaussian)
	case res.Kind == models.MTF && res.MTF != nil:
		r.DrawMTF(c, res.MTF)
	default:
		r.background(c)
	}
}

// plot is the drawing area inside the margins.
type plot struct {
	width, height float64
	innerW        float64
	innerH        float64
}

func newPlot(c *visualization.Canvas) plot {
	w, h := c.Box()
	return plot{
		width:  float64(w),
		height: float64(h),
		innerW: float64(w) - 2*Margin,
		innerH: float64(h) - 2*Margin,
	}
}

// bottom is the y coordinate of the x axis.
func (p plot) bottom() float64 { return p.height - Margin }

// right is the x coordinate of the end of the x axis.
func (p plot) right() float64 { return p.width - Margin }

// background starts a new frame and fills it. It returns nil when the
// canvas has no area.
func (r *Renderer) background(c *visualization.Canvas) *gg.Context {
	w, h := c.Box()
	if w == 0 || h == 0 {
		c.Reset()
		return nil
	}
	dc := c.Begin()
	dc.SetColor(r.style.Background)
	dc.Clear()
	return dc
}

func (r *Renderer) axes(dc *gg.Context, p plot) {
	dc.SetColor(r.style.Axis)
	dc.SetLineWidth(1)
	dc.MoveTo(Margin, Margin)
	dc.LineTo(Margin, p.bottom())
	dc.LineTo(p.right(), p.bottom())
	dc.Stroke()
}

// grid draws the vertical and horizontal grid lines with their labels.
// xLabel and yLabel return the label for tick i of NumTicks.
func (r *Renderer) grid(dc *gg.Context, p plot, xLabel, yLabel func(i int) string) {
	dc.SetFontFace(r.small)
	dc.SetLineWidth(1)

	for i := 0; i <= NumTicks; i++ {
		x := Margin + float64(i)/NumTicks*p.innerW
		dc.SetColor(r.style.Axis)
		dc.DrawStringAnchored(xLabel(i), x, p.bottom()+15, 0.5, 0)

		dc.SetColor(r.style.Grid)
		dc.DrawLine(x, Margin, x, p.bottom())
		dc.Stroke()
	}

	for i := 0; i <= NumTicks; i++ {
		y := p.bottom() - float64(i)/NumTicks*p.innerH
		dc.SetColor(r.style.Axis)
		dc.DrawStringAnchored(yLabel(i), Margin-5, y+3, 1, 0)

		dc.SetColor(r.style.Grid)
		dc.DrawLine(Margin, y, p.right(), y)
		dc.Stroke()
	}
}

func (r *Renderer) titles(dc *gg.Context, p plot, xTitle, yTitle string) {
	dc.SetFontFace(r.small)
	dc.SetColor(r.style.Axis)
	dc.DrawStringAnchored(xTitle, p.width/2, p.height-5, 0.5, 0)

	dc.Push()
	dc.RotateAbout(-math.Pi/2, 15, p.height/2)
	dc.DrawStringAnchored(yTitle, 15, p.height/2, 0.5, 0)
	dc.Pop()
}

// dataRange returns min and the span of values, with a zero span replaced
// by 1 so that scaling never divides by zero.
func dataRange(values []float64) (lo, span float64) {
	lo, hi := floats.Min(values), floats.Max(values)
	span = hi - lo
	if span == 0 {
		span = 1
	}
	return lo, span
}

func hex(s string) color.Color {
	var c color.RGBA
	c.A = 255
	fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return c
}
