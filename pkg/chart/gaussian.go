package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"sliceview/internal/models"
	"sliceview/pkg/visualization"
)

// GaussianAnnotations returns the summary lines printed on the profile
// chart: FWHM and center to two decimals, R² to four.
func GaussianAnnotations(g *models.GaussianResult) []string {
	return []string{
		fmt.Sprintf("FWHM: %.2f mm", g.FWHM),
		fmt.Sprintf("Center: %.2f", g.Center),
		fmt.Sprintf("R²: %.4f", g.RSquared),
	}
}

// validGaussian reports whether g has plottable, equally sized series.
func validGaussian(g *models.GaussianResult) bool {
	if g == nil || len(g.XData) == 0 {
		return false
	}
	return len(g.YData) == len(g.XData) && len(g.YFit) == len(g.XData)
}

// DrawGaussian plots the raw profile samples as points and the fitted curve
// as a line, scaled to the data's own range.
func (r *Renderer) DrawGaussian(c *visualization.Canvas, g *models.GaussianResult) {
	dc := r.background(c)
	if dc == nil || !validGaussian(g) {
		return
	}
	p := newPlot(c)
	r.axes(dc, p)

	minX, xRange := dataRange(g.XData)
	minY, yRange := dataRange(g.YData)
	xScale := p.innerW / xRange
	yScale := p.innerH / yRange

	px := func(x float64) float64 { return Margin + (x-minX)*xScale }
	py := func(y float64) float64 { return p.bottom() - (y-minY)*yScale }

	dc.SetColor(r.style.Points)
	for i, x := range g.XData {
		dc.DrawCircle(px(x), py(g.YData[i]), pointRadius)
		dc.Fill()
	}

	dc.SetColor(r.style.Fit)
	dc.SetLineWidth(2)
	for i, x := range g.XData {
		if i == 0 {
			dc.MoveTo(px(x), py(g.YFit[i]))
		} else {
			dc.LineTo(px(x), py(g.YFit[i]))
		}
	}
	dc.Stroke()

	// Labels span the true extent; a flat series repeats one value.
	maxX, maxY := floats.Max(g.XData), floats.Max(g.YData)
	r.grid(dc, p,
		func(i int) string {
			return fmt.Sprintf("%d", int(math.Round(minX+float64(i)/NumTicks*(maxX-minX))))
		},
		func(i int) string {
			return fmt.Sprintf("%d", int(math.Round(minY+float64(i)/NumTicks*(maxY-minY))))
		},
	)
	r.titles(dc, p, "Position (pixels)", "Intensity")

	dc.SetFontFace(r.medium)
	dc.SetColor(r.style.Text)
	infoX := p.right() - 10
	infoY := float64(Margin + 20)
	for i, line := range GaussianAnnotations(g) {
		dc.DrawStringAnchored(line, infoX, infoY+float64(i)*lineHeight, 1, 0)
	}
}
