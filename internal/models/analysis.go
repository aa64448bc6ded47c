package models

// GaussianResult holds a fitted intensity profile across a rectangle ROI.
// XData, YData and YFit are parallel and of equal length.
type GaussianResult struct {
	XData []float64 `json:"x_data"`
	YData []float64 `json:"y_data"`
	YFit  []float64 `json:"y_fit"`

	// FWHM is the full width at half maximum of the fitted peak
	FWHM float64 `json:"fwhm"`

	// Center is the fitted peak position
	Center float64 `json:"center"`

	// RSquared is the coefficient of determination of the fit
	RSquared float64 `json:"r_squared"`
}

// MTFResult holds a modulation transfer function sampled along a line ROI.
// Frequencies and MTF are parallel; MTF values are expected in [0,1] but
// this is not enforced.
type MTFResult struct {
	Frequencies []float64 `json:"frequencies"`
	MTF         []float64 `json:"mtf"`
}

// AnalysisResult is a tagged union of the two analysis outputs.
// Exactly one of Gaussian or MTF is set, matching Kind.
type AnalysisResult struct {
	Kind     AnalysisKind
	Gaussian *GaussianResult
	MTF      *MTFResult
}

// Empty reports whether the result carries no payload.
func (r AnalysisResult) Empty() bool {
	switch r.Kind {
	case Gaussian:
		return r.Gaussian == nil
	case MTF:
		return r.MTF == nil
	default:
		return true
	}
}
