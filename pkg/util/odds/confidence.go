package odds

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// z95 is the two sided 95% normal quantile
const z95 = 1.96

// ConfidenceIntervalFor is the Wald interval of a Poisson rate estimated over
// matches games. Undefined below MinMatches.
func ConfidenceIntervalFor(rate float64, matches int) (ConfidenceInterval, bool) {
	if matches < MinMatches || rate < 0 || math.IsNaN(rate) {
		return ConfidenceInterval{}, false
	}
	se := math.Sqrt(rate / float64(matches))
	return ConfidenceInterval{
		Lower: Round2(math.Max(0, rate-z95*se)),
		Upper: Round2(rate + z95*se),
	}, true
}

// ClassifyRate triages how dependable a per-match rate is
func ClassifyRate(rate float64, matches int) Consistency {
	ci, ok := ConfidenceIntervalFor(rate, matches)
	if !ok {
		return Low
	}
	if rate > 0.8 && ci.Lower > 0.4 {
		return High
	}
	if rate > 0.4 {
		return Medium
	}
	return Low
}

// VariationThresholds are the coefficient of variation cut points
type VariationThresholds struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// DefaultVariationThresholds are the cut points used when none are configured
var DefaultVariationThresholds = VariationThresholds{High: 0.5, Low: 0.25}

// CoefficientOfVariation is the sample standard deviation over the mean.
// Undefined for fewer than two values or a zero mean.
func CoefficientOfVariation(sample []float64) Optional {
	if len(sample) < 2 {
		return None()
	}
	mean, std := stat.MeanStdDev(sample, nil)
	if mean == 0 || math.IsNaN(std) {
		return None()
	}
	return Some(std / mean)
}

// ClassifyVariation labels a raw per-match series by its dispersion: a CV
// above t.High is High, below t.Low is Low, Medium otherwise. The returned
// bool is false when the CV is undefined.
func ClassifyVariation(sample []float64, t VariationThresholds) (Consistency, Optional, bool) {
	cv := CoefficientOfVariation(sample)
	v, ok := cv.Get()
	if !ok {
		return "", cv, false
	}
	switch {
	case v > t.High:
		return High, Some(Round2(v)), true
	case v < t.Low:
		return Low, Some(Round2(v)), true
	default:
		return Medium, Some(Round2(v)), true
	}
}
