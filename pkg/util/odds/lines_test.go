package odds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLines(t *testing.T) {
	tests := []struct {
		name     string
		expected float64
		spread   int
		want     []float64
	}{
		{"centred on 2.5", 2.3, 2, []float64{0.5, 1.5, 2.5, 3.5, 4.5}},
		{"drops non positive", 0.7, 2, []float64{0.5, 1.5, 2.5}},
		{"zero spread", 3.9, 0, []float64{3.5}},
		{"tie rounds to even", 3.0, 1, []float64{1.5, 2.5, 3.5}},
		{"zero expected", 0, 2, []float64{}},
		{"negative expected", -1, 2, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateLines(tt.expected, tt.spread))
		})
	}
}

func TestHalfLines(t *testing.T) {
	assert.Equal(t, []float64{0.5, 1.5, 2.5, 3.5, 4.5}, HalfLines(4.5))
}

func TestBothTeamsToScore(t *testing.T) {
	var matches []H2HMatchRecord
	for i := 0; i < 10; i++ {
		m := H2HMatchRecord{HomeTeam: "X", AwayTeam: "Y", HomeGoals: 1, AwayGoals: 1}
		if i >= 6 {
			m.AwayGoals = 0
		}
		matches = append(matches, m)
	}

	b, ok := BothTeamsToScore(matches)
	require.True(t, ok)
	assert.InDelta(t, 0.6, b.ProbYes, 1e-12)
	yes, _ := b.OddYes.Value()
	no, _ := b.OddNo.Value()
	assert.InDelta(t, 1.67, yes, 0.005)
	assert.InDelta(t, 2.5, no, 1e-9)

	_, ok = BothTeamsToScore(matches[:4])
	assert.False(t, ok)

	for i := range matches {
		matches[i].AwayGoals = 2
	}
	b, ok = BothTeamsToScore(matches)
	require.True(t, ok)
	assert.True(t, b.OddNo.IsInfinite())
}

func TestEmpiricalGoalLines(t *testing.T) {
	scores := [][2]int{{0, 0}, {1, 0}, {2, 1}, {3, 2}, {1, 1}}
	var matches []H2HMatchRecord
	for _, s := range scores {
		matches = append(matches, H2HMatchRecord{HomeTeam: "X", AwayTeam: "Y", HomeGoals: s[0], AwayGoals: s[1]})
	}
	lines, ok := EmpiricalGoalLines(matches, []float64{0.5, 2.5, 5.5})
	require.True(t, ok)
	assert.InDelta(t, 0.8, lines[0].ProbOver, 1e-12)
	assert.InDelta(t, 0.4, lines[1].ProbOver, 1e-12)
	assert.Equal(t, 0.0, lines[2].ProbOver)
	assert.True(t, lines[2].OddOver.IsInfinite())

	p, odd, ok := GoallessFrequency(matches)
	require.True(t, ok)
	assert.InDelta(t, 0.2, p, 1e-12)
	v, _ := odd.Value()
	assert.InDelta(t, 5, v, 1e-9)
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	rows := []RateRow{
		mustRow(t, "A", "T", 10, map[string]float64{ShotsOnTarget: 12}),
		mustRow(t, "B", "T", 3, map[string]float64{ShotsOnTarget: 6}),
		mustRow(t, "C", "T", 0, map[string]float64{}),
		mustRow(t, "D", "T", 20, map[string]float64{ShotsOnTarget: 30}),
	}
	out, err := AnalyzeBatch(context.Background(), rows, ShotsOnTarget, []float64{0.5, 1.5}, 2, 2)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, "A", out[0].EntityName)
	assert.True(t, out[0].Applicable())
	assert.NotNil(t, out[0].Interval)

	assert.False(t, out[1].Applicable(), "three matches is below the gate")
	assert.Nil(t, out[1].Interval)

	assert.False(t, out[2].Rate.Defined())
	assert.Equal(t, Low, out[2].Consistency)

	assert.Equal(t, High, out[3].Consistency)

	SortByRate(out)
	assert.Equal(t, []string{"B", "D", "A", "C"}, []string{out[0].EntityName, out[1].EntityName, out[2].EntityName, out[3].EntityName})
}

func TestAnalyzeEntityGeneratesLines(t *testing.T) {
	row := mustRow(t, "Keeper", "T", 10, map[string]float64{Saves: 26})
	a, err := AnalyzeEntity(row, Saves, nil, 1)
	require.NoError(t, err)
	require.Len(t, a.Odds, 3)
	assert.Equal(t, 1.5, a.Odds[0].Line)
	assert.Equal(t, 3.5, a.Odds[2].Line)
}

func TestBuildH2HReport(t *testing.T) {
	matches := []H2HMatchRecord{
		h2hMatch("X", "Y", 2, 1, 14, 8),
		h2hMatch("Y", "X", 0, 0, 9, 11),
		h2hMatch("X", "Y", 1, 3, 12, 10),
		h2hMatch("Y", "X", 1, 2, 7, 15),
		h2hMatch("X", "Y", 2, 2, 0, 0),
		h2hMatch("Y", "X", 2, 0, 10, 9),
	}
	rep, err := BuildH2HReport(matches, "X", "Y", DefaultH2HOptions())
	require.NoError(t, err)

	assert.Equal(t, 6, rep.Record.Matches)
	assert.Equal(t, 2, rep.Record.WinsA)
	assert.Equal(t, 1, rep.Record.WinsAHome)
	assert.Equal(t, 1, rep.Record.WinsAAway)
	assert.Equal(t, 2, rep.Record.WinsB)
	assert.Equal(t, 1, rep.Record.WinsBHome)
	assert.Equal(t, 1, rep.Record.WinsBAway)
	assert.Equal(t, 2, rep.Record.Draws)
	assert.Equal(t, 5, rep.StatMatches)

	require.NotNil(t, rep.BTTS)
	assert.Equal(t, 4, rep.BTTS.Both)

	shots := rep.Stats[TotalShots]
	assert.Equal(t, []float64{14, 11, 12, 15, 9}, shots.Series.SeriesA)
	assert.Equal(t, Some(12.2), shots.AverageA)
	assert.NotEmpty(t, shots.OddsA)
	assert.NotEmpty(t, shots.VariationA)

	saves := rep.Stats[Saves]
	assert.Empty(t, saves.OddsA, "no saves were reported, the rate is zero and no line is generated")
}
