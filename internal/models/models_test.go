package models

import "testing"

func TestProjectionNames(t *testing.T) {
	for _, p := range Projections {
		parsed, err := ParseProjection(p.String())
		if err != nil {
			t.Fatalf("ParseProjection(%q) failed: %v", p.String(), err)
		}
		if parsed != p {
			t.Errorf("Expected %v, got %v", p, parsed)
		}
	}

	if _, err := ParseProjection("oblique"); err == nil {
		t.Error("Expected an error for an unknown projection")
	}
	if Projection(7).Valid() {
		t.Error("Expected projection 7 to be invalid")
	}
	if got := Projection(-1).String(); got != "projection(-1)" {
		t.Errorf("Expected projection(-1), got %s", got)
	}
}

func TestShapeSlices(t *testing.T) {
	s := Shape{10, 20, 30}
	if s.Slices(Axial) != 10 || s.Slices(Sagittal) != 20 || s.Slices(Coronal) != 30 {
		t.Errorf("Expected 10/20/30 slices, got %d/%d/%d", s.Slices(Axial), s.Slices(Sagittal), s.Slices(Coronal))
	}
	if s.Slices(Projection(5)) != 0 {
		t.Error("Expected 0 slices for an invalid projection")
	}
}

func TestAnalysisKind(t *testing.T) {
	for _, k := range []AnalysisKind{Gaussian, MTF} {
		parsed, err := ParseAnalysisKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("Expected %v, got %v (err %v)", k, parsed, err)
		}
	}
	if _, err := ParseAnalysisKind("snr"); err == nil {
		t.Error("Expected an error for an unknown analysis kind")
	}
}

func TestROINormalized(t *testing.T) {
	rect := ROI{Kind: Gaussian, Start: Point{X: 70, Y: 30}, End: Point{X: 10, Y: -10}}.Normalized()
	if rect.Start != (Point{X: 10, Y: -10}) || rect.End != (Point{X: 70, Y: 30}) {
		t.Errorf("Expected (10,-10)-(70,30), got %v-%v", rect.Start, rect.End)
	}

	line := ROI{Kind: MTF, Start: Point{X: 70, Y: 30}, End: Point{X: 10, Y: -10}}
	if got := line.Normalized(); got != line {
		t.Errorf("Expected line ROI to keep its drawn order, got %v", got)
	}
}

func TestROIRounded(t *testing.T) {
	r := ROI{Kind: MTF, Start: Point{X: 1.49, Y: -2.5}, End: Point{X: 2.5, Y: 3.51}}.Rounded()
	want := ROI{Kind: MTF, Start: Point{X: 1, Y: -2}, End: Point{X: 3, Y: 4}}
	if r != want {
		t.Errorf("Expected %v, got %v", want, r)
	}

	halves := ROI{Kind: Gaussian, Start: Point{X: -2.5, Y: -0.5}, End: Point{X: 2.5, Y: 0.5}}.Rounded()
	want = ROI{Kind: Gaussian, Start: Point{X: -2, Y: 0}, End: Point{X: 3, Y: 1}}
	if halves != want {
		t.Errorf("Expected halves to round up to %v, got %v", want, halves)
	}
}

func TestAnalysisResultEmpty(t *testing.T) {
	if !(AnalysisResult{}).Empty() {
		t.Error("Expected zero result to be empty")
	}
	if !(AnalysisResult{Kind: MTF, Gaussian: &GaussianResult{}}).Empty() {
		t.Error("Expected MTF result without payload to be empty")
	}
	if (AnalysisResult{Kind: Gaussian, Gaussian: &GaussianResult{}}).Empty() {
		t.Error("Expected Gaussian result with payload to be non-empty")
	}
}

func TestProjectionImageSize(t *testing.T) {
	img := ProjectionImage{Rows: 48, Cols: 64}
	if img.Width() != 64 || img.Height() != 48 {
		t.Errorf("Expected 64x48, got %dx%d", img.Width(), img.Height())
	}
}
