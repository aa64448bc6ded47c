package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"sliceview/internal/models"
	"sliceview/pkg/visualization"
)

// MarkerLabel formats the annotation of an MTF crossing.
func MarkerLabel(m Marker) string {
	return fmt.Sprintf("MTF=%.1f: %.3f", m.Target, m.Frequency)
}

// DrawMTF plots the MTF curve against normalized sample index and marks
// where it crosses 0.5 and 0.1. The y axis is fixed to [0, 1].
func (r *Renderer) DrawMTF(c *visualization.Canvas, m *models.MTFResult) {
	dc := r.background(c)
	if dc == nil || m == nil || len(m.MTF) < 2 || len(m.Frequencies) == 0 {
		return
	}
	p := newPlot(c)
	r.axes(dc, p)

	n := len(m.MTF)
	xAt := func(index float64) float64 { return Margin + index/float64(n-1)*p.innerW }

	dc.SetColor(r.style.Curve)
	dc.SetLineWidth(2)
	for i, v := range m.MTF {
		x, y := xAt(float64(i)), p.bottom()-v*p.innerH
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	freqs := m.Frequencies
	r.grid(dc, p,
		func(i int) string {
			idx := int(math.Round(float64(i) / NumTicks * float64(len(freqs)-1)))
			return fmt.Sprintf("%.2f", freqs[idx])
		},
		func(i int) string {
			return fmt.Sprintf("%.1f", float64(i)/NumTicks)
		},
	)
	r.titles(dc, p, "Frequency (cycles/pixel)", "MTF")

	for _, mk := range Markers(freqs, m.MTF) {
		col := r.markerColor(mk.Target)
		x := xAt(mk.Index)

		dc.SetColor(col)
		dc.SetLineWidth(1)
		dc.SetDash(5, 4)
		dc.DrawLine(x, Margin, x, p.bottom())
		dc.Stroke()
		dc.SetDash()

		// The first target is labelled above the plot, the rest just inside it
		textY := float64(Margin + 15)
		if mk.Target == MTFTargets[0] {
			textY = Margin - 5
		}
		dc.SetFontFace(r.small)
		dc.DrawStringAnchored(MarkerLabel(mk), x, textY, 0.5, 0)
	}

	r.legend(dc)
}

func (r *Renderer) legend(dc *gg.Context) {
	dc.SetFontFace(r.bold)
	dc.SetColor(r.style.Text)
	dc.DrawStringAnchored("● MTF (Modulation Transfer Function)", Margin+10, Margin-30, 0, 0)

	for i, target := range MTFTargets {
		dc.SetColor(r.markerColor(target))
		dc.DrawStringAnchored(fmt.Sprintf("─ ─ MTF = %.1f", target), Margin+10+float64(i)*130, Margin-15, 0, 0)
	}
}

func (r *Renderer) markerColor(target float64) color.Color {
	for i, t := range MTFTargets {
		if t == target && i < len(r.style.MarkerColors) {
			return r.style.MarkerColors[i]
		}
	}
	return r.style.Text
}
