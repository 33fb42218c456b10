package odds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFairOddsHalfLineScenario(t *testing.T) {
	e, err := FairOdds(1.2, 1.5)
	require.NoError(t, err)

	assert.Equal(t, HalfLine, e.Kind)
	assert.InDelta(t, 0.6626, e.ProbUnder, 1e-4)
	assert.InDelta(t, 0.3374, e.ProbOver, 1e-4)

	over, ok := e.OddOver.Value()
	require.True(t, ok)
	assert.InDelta(t, 2.96, over, 0.005)
	under, ok := e.OddUnder.Value()
	require.True(t, ok)
	assert.InDelta(t, 1.51, under, 0.005)
}

func TestFairOddsProbabilitiesSumToOne(t *testing.T) {
	lambdas := []float64{0, 0.05, 0.4, 1.2, 2.7, 5, 11.3}
	lines := []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2, 2.5, 3, 3.25, 4.75, 8.5}
	for _, l := range lambdas {
		for _, line := range lines {
			e, err := FairOdds(l, line)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, e.ProbOver+e.ProbUnder, 1e-9, "lambda=%v line=%v", l, line)
			assert.GreaterOrEqual(t, e.ProbOver, 0.0)
			assert.LessOrEqual(t, e.ProbOver, 1.0)
			assert.GreaterOrEqual(t, e.ProbUnder, 0.0)
			assert.LessOrEqual(t, e.ProbUnder, 1.0)
		}
	}
}

func TestFairOddsMonotonicInLine(t *testing.T) {
	for _, lambda := range []float64{0.3, 1.2, 3.5, 7} {
		prev := 2.0
		for line := 0.5; line <= 6.5; line++ {
			e, err := FairOdds(lambda, line)
			require.NoError(t, err)
			assert.Less(t, e.ProbOver, prev, "lambda=%v line=%v", lambda, line)
			prev = e.ProbOver
		}
	}

	// quarter steps keep decreasing too
	prev := 2.0
	for _, line := range []float64{1.25, 1.5, 1.75, 2, 2.25, 2.5, 2.75} {
		e, err := FairOdds(2.1, line)
		require.NoError(t, err)
		assert.Less(t, e.ProbOver, prev, "line=%v", line)
		prev = e.ProbOver
	}
}

func TestFairOddsIsPure(t *testing.T) {
	a, err := FairOdds(2.35, 2.75)
	require.NoError(t, err)
	b, err := FairOdds(2.35, 2.75)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFairOddsZeroLambda(t *testing.T) {
	e, err := FairOdds(0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.ProbOver)
	assert.Equal(t, 1.0, e.ProbUnder)
	assert.True(t, e.OddOver.IsInfinite())
	under, ok := e.OddUnder.Value()
	require.True(t, ok)
	assert.Equal(t, 1.0, under)

	whole, err := FairOdds(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, whole.ProbOver)
	assert.True(t, whole.OddOver.IsInfinite())
}

func TestFairOddsWholeLinePush(t *testing.T) {
	lambda := 2.0
	e, err := FairOdds(lambda, 2)
	require.NoError(t, err)

	push := PoissonPMF(2, lambda)
	overStrict := 1 - PoissonCDF(2, lambda)
	underStrict := PoissonCDF(1, lambda)

	assert.Equal(t, WholeLine, e.Kind)
	assert.InDelta(t, push, e.ProbPush, 1e-12)
	over, _ := e.OddOver.Value()
	under, _ := e.OddUnder.Value()
	assert.InDelta(t, (1-push)/overStrict, over, 1e-9)
	assert.InDelta(t, (1-push)/underStrict, under, 1e-9)
	assert.InDelta(t, 1/over, e.ProbOver, 1e-9)
}

func TestFairOddsQuarterLines(t *testing.T) {
	lambda := 1.6

	t.Run("quarter low", func(t *testing.T) {
		e, err := FairOdds(lambda, 1.25)
		require.NoError(t, err)
		halfLoss := PoissonPMF(1, lambda)
		fullWin := 1 - PoissonCDF(1, lambda)
		over, ok := e.OddOver.Value()
		require.True(t, ok)
		assert.Equal(t, QuarterLowLine, e.Kind)
		assert.InDelta(t, (1-0.5*halfLoss)/fullWin, over, 1e-9)

		// under wins on 0 and half wins on 1
		underWin := PoissonPMF(0, lambda)
		under, _ := e.OddUnder.Value()
		assert.InDelta(t, (1-0.5*halfLoss)/(underWin+0.5*halfLoss), under, 1e-9)
	})

	t.Run("quarter high", func(t *testing.T) {
		e, err := FairOdds(lambda, 1.75)
		require.NoError(t, err)
		halfWin := PoissonPMF(2, lambda)
		fullWin := 1 - PoissonCDF(2, lambda)
		over, ok := e.OddOver.Value()
		require.True(t, ok)
		assert.Equal(t, QuarterHighLine, e.Kind)
		assert.InDelta(t, (1-0.5*halfWin)/(fullWin+0.5*halfWin), over, 1e-9)

		underWin := PoissonCDF(1, lambda)
		under, _ := e.OddUnder.Value()
		assert.InDelta(t, (1-0.5*halfWin)/underWin, under, 1e-9)
	})

	t.Run("quarter low with nothing below", func(t *testing.T) {
		e, err := FairOdds(0, 0.25)
		require.NoError(t, err)
		assert.True(t, e.OddOver.IsInfinite())
		under, ok := e.OddUnder.Value()
		require.True(t, ok)
		assert.InDelta(t, 1.0, under, 1e-12)
	})
}

func TestFairOddsRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		lambda float64
		line   float64
	}{
		{"negative lambda", -0.1, 1.5},
		{"zero line", 1, 0},
		{"negative line", 1, -1.5},
		{"odd step", 1, 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FairOdds(tt.lambda, tt.line)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestOddsForRowMinimumSample(t *testing.T) {
	rec, err := NewStatRecord("Player", "Team", 3, map[string]float64{ShotsOnTarget: 9})
	require.NoError(t, err)
	row := NewRateRow(rec)

	table, ok, err := OddsForRow(row, ShotsOnTarget, []float64{0.5, 1.5})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, table)

	_, ok = ConfidenceIntervalFor(row.Rate(ShotsOnTarget).OrElse(0), row.MatchesPlayed)
	assert.False(t, ok)

	rec.MatchesPlayed = 5
	table, ok, err = OddsForRow(NewRateRow(rec), ShotsOnTarget, []float64{0.5, 1.5})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, table, 2)
}

func TestOddJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Odd `json:"a"`
		B Odd `json:"b"`
	}{Finite(2.9637), Infinite()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2.96,"b":"∞"}`, string(data))

	var o Odd
	require.NoError(t, json.Unmarshal([]byte(`"∞"`), &o))
	assert.True(t, o.IsInfinite())
	require.NoError(t, json.Unmarshal([]byte(`1.75`), &o))
	v, ok := o.Value()
	assert.True(t, ok)
	assert.Equal(t, 1.75, v)
}

func TestClassifyLine(t *testing.T) {
	kinds := map[float64]LineKind{
		0.5: HalfLine, 2: WholeLine, 2.25: QuarterLowLine, 2.75: QuarterHighLine, 10.5: HalfLine,
	}
	for line, want := range kinds {
		got, err := ClassifyLine(line)
		require.NoError(t, err)
		assert.Equal(t, want, got, "line %v", line)
	}
}
