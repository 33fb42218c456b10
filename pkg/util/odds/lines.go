package odds

import "math"

// GenerateLines returns 2*spread+1 half-integer lines centred on the half
// line nearest below expected, keeping only positive lines
func GenerateLines(expected float64, spread int) []float64 {
	if expected <= 0 || spread < 0 || math.IsNaN(expected) || math.IsInf(expected, 0) {
		return []float64{}
	}
	// ties go to the even integer so 3.0 centres on 2.5
	center := math.RoundToEven(expected-0.5) + 0.5
	lines := make([]float64, 0, 2*spread+1)
	for i := -spread; i <= spread; i++ {
		if l := center + float64(i); l > 0 {
			lines = append(lines, l)
		}
	}
	return lines
}

// HalfLines returns the half lines from 0.5 up to upTo inclusive
func HalfLines(upTo float64) []float64 {
	lines := []float64{}
	for l := 0.5; l <= upTo; l++ {
		lines = append(lines, l)
	}
	return lines
}
