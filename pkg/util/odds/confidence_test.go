package odds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceIntervalFor(t *testing.T) {
	_, ok := ConfidenceIntervalFor(1.4, 4)
	assert.False(t, ok)

	ci, ok := ConfidenceIntervalFor(1.2, 10)
	require.True(t, ok)
	se := math.Sqrt(1.2 / 10)
	assert.InDelta(t, 1.2-1.96*se, ci.Lower, 0.006)
	assert.InDelta(t, 1.2+1.96*se, ci.Upper, 0.006)

	for _, rate := range []float64{0, 0.1, 0.3, 0.8, 2.5} {
		for _, n := range []int{5, 6, 12, 38} {
			ci, ok := ConfidenceIntervalFor(rate, n)
			require.True(t, ok)
			assert.GreaterOrEqual(t, ci.Lower, 0.0)
			assert.LessOrEqual(t, ci.Lower, rate)
			assert.GreaterOrEqual(t, ci.Upper, rate)
		}
	}
}

func TestClassifyRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		matches int
		want    Consistency
	}{
		{"high", 1.5, 20, High},
		{"high rate but wide interval", 0.9, 5, Medium},
		{"medium", 0.6, 10, Medium},
		{"low rate", 0.3, 30, Low},
		{"too few matches", 3, 4, Low},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRate(tt.rate, tt.matches))
		})
	}
}

func TestClassifyVariation(t *testing.T) {
	tests := []struct {
		name   string
		sample []float64
		want   Consistency
	}{
		{"steady", []float64{10, 11, 9, 10, 10}, Low},
		{"middling", []float64{4, 6, 8, 5, 7}, Medium},
		{"erratic", []float64{0, 5, 1, 9, 0, 2}, High},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cv, ok := ClassifyVariation(tt.sample, DefaultVariationThresholds)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.True(t, cv.Defined())
		})
	}

	_, _, ok := ClassifyVariation([]float64{3}, DefaultVariationThresholds)
	assert.False(t, ok)
	_, _, ok = ClassifyVariation([]float64{0, 0, 0}, DefaultVariationThresholds)
	assert.False(t, ok)
}
