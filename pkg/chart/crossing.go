package chart

import "math"

// crossingEpsilon replaces a zero denominator when two neighbouring MTF
// samples are equal.
const crossingEpsilon = 1e-6

// MTFTargets are the modulation levels annotated on MTF charts.
var MTFTargets = []float64{0.5, 0.1}

// Marker is an annotated MTF crossing.
type Marker struct {
	// Target is the modulation level that was crossed
	Target float64

	// Index is the fractional sample index of the crossing
	Index float64

	// Frequency is the frequency at Index, linearly interpolated
	Frequency float64
}

// CrossingIndex finds the first adjacent pair of samples that brackets
// target and returns the linearly interpolated fractional index between
// them. It returns false when the curve never reaches target.
func CrossingIndex(mtf []float64, target float64) (float64, bool) {
	for i := 1; i < len(mtf); i++ {
		prev, curr := mtf[i-1], mtf[i]
		if (prev >= target && curr <= target) || (prev <= target && curr >= target) {
			denom := curr - prev
			if denom == 0 {
				denom = crossingEpsilon
			}
			t := (target - prev) / denom
			return float64(i-1) + math.Max(0, math.Min(1, t)), true
		}
	}
	return 0, false
}

// FrequencyAt samples frequencies at a fractional index, interpolating
// between neighbours and clamping to the ends of the slice.
func FrequencyAt(frequencies []float64, index float64) float64 {
	n := len(frequencies)
	if n == 0 {
		return 0
	}
	if index <= 0 {
		return frequencies[0]
	}
	if index >= float64(n-1) {
		return frequencies[n-1]
	}
	lo := int(math.Floor(index))
	frac := index - float64(lo)
	return frequencies[lo] + (frequencies[lo+1]-frequencies[lo])*frac
}

// Markers returns the crossings of every target in MTFTargets that the
// curve actually reaches. Targets without a crossing are omitted.
func Markers(frequencies, mtf []float64) []Marker {
	var out []Marker
	for _, target := range MTFTargets {
		idx, ok := CrossingIndex(mtf, target)
		if !ok {
			continue
		}
		out = append(out, Marker{Target: target, Index: idx, Frequency: FrequencyAt(frequencies, idx)})
	}
	return out
}
