package odds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRow(t *testing.T, name, team string, matches int, counters map[string]float64) RateRow {
	t.Helper()
	rec, err := NewStatRecord(name, team, matches, counters)
	require.NoError(t, err)
	return NewRateRow(rec)
}

func TestAggregateTeam(t *testing.T) {
	rows := []RateRow{
		mustRow(t, "A", "Flamengo", 10, map[string]float64{TotalShots: 20, ShotsOnTarget: 8}),
		mustRow(t, "B", "Flamengo", 7, map[string]float64{TotalShots: 10, ShotsOnTarget: 4}),
		mustRow(t, "C", "Flamengo", 12, map[string]float64{TotalShots: 6}),
	}
	team := AggregateTeam(rows)

	assert.Equal(t, "Flamengo", team.TeamName)
	assert.Equal(t, 12, team.MatchesPlayed, "matches played is the max, not the sum")
	assert.Equal(t, 36.0, team.Counter(TotalShots))
	assert.Equal(t, 12.0, team.Counter(ShotsOnTarget))
	assert.Equal(t, Some(3), team.Rate(TotalShots))
	assert.Equal(t, Some(1), team.Rate(ShotsOnTarget))
}

func TestAggregateTeamEmpty(t *testing.T) {
	team := AggregateTeam(nil)
	assert.Equal(t, 0, team.MatchesPlayed)
	assert.Empty(t, team.Counters)
	assert.False(t, team.Rate(TotalShots).Defined())
}

func TestGroupByTeam(t *testing.T) {
	rows := []RateRow{
		mustRow(t, "A", "Santos", 5, map[string]float64{Saves: 10}),
		mustRow(t, "B", "Bahia", 6, map[string]float64{Saves: 12}),
		mustRow(t, "C", "Santos", 3, map[string]float64{Saves: 1}),
	}
	teams := GroupByTeam(rows)
	require.Len(t, teams, 2)
	assert.Equal(t, "Bahia", teams[0].TeamName)
	assert.Equal(t, "Santos", teams[1].TeamName)
	assert.Equal(t, 11.0, teams[1].Counter(Saves))
	assert.Equal(t, 5, teams[1].MatchesPlayed)
}

func h2hMatch(home, away string, hg, ag int, hs, as float64) H2HMatchRecord {
	return H2HMatchRecord{
		HomeTeam: home, AwayTeam: away, HomeGoals: hg, AwayGoals: ag,
		Home: map[string]float64{TotalShots: hs}, Away: map[string]float64{TotalShots: as},
	}
}

func TestReconcileH2HAlternation(t *testing.T) {
	matches := []H2HMatchRecord{
		h2hMatch("X", "Y", 1, 0, 11, 3),
		h2hMatch("Y", "X", 2, 2, 7, 21),
		h2hMatch("X", "Y", 0, 1, 13, 5),
		h2hMatch("Y", "X", 0, 3, 9, 23),
	}
	s := ReconcileH2H(matches, "X", "Y", TotalShots)
	assert.Equal(t, []float64{11, 21, 13, 23}, s.SeriesA)
	assert.Equal(t, []float64{3, 7, 5, 9}, s.SeriesB)
}

func TestReconcileH2HSkipsMatchesWithoutStats(t *testing.T) {
	noStats := h2hMatch("Y", "X", 1, 1, 0, 0)
	flagged := h2hMatch("X", "Y", 2, 0, 10, 4)
	flagged.MissingStats = true
	matches := []H2HMatchRecord{
		h2hMatch("X", "Y", 3, 1, 12, 6),
		noStats,
		flagged,
		h2hMatch("Other", "Y", 1, 0, 8, 8),
	}

	s := ReconcileH2H(matches, "X", "Y", TotalShots)
	assert.Equal(t, []float64{12}, s.SeriesA)

	goals := ReconcileGoals(matches, "X", "Y")
	assert.Equal(t, []float64{3, 1, 2}, goals.SeriesA)
	assert.Equal(t, []float64{1, 1, 0}, goals.SeriesB)
}

func TestReconcileH2HNormalisesNames(t *testing.T) {
	matches := []H2HMatchRecord{h2hMatch("Atlético Mineiro", "Grêmio", 1, 0, 10, 4)}
	s := ReconcileH2H(matches, "atletico mineiro", "GREMIO", TotalShots)
	assert.Equal(t, []float64{10}, s.SeriesA)
	assert.Equal(t, []float64{4}, s.SeriesB)
}

func TestMatchTotalsAndAverages(t *testing.T) {
	corners := func(h, a float64) H2HMatchRecord {
		return H2HMatchRecord{HomeTeam: "X", AwayTeam: "Y", HomeGoals: 1, AwayGoals: 1,
			Home: map[string]float64{CornersFor: h}, Away: map[string]float64{CornersFor: a}}
	}
	matches := []H2HMatchRecord{corners(5, 3), corners(0, 0), corners(2, 6)}

	assert.Equal(t, Some(8), MatchTotal(matches[0], CornersFor))
	assert.False(t, MatchTotal(matches[1], CornersFor).Defined())
	assert.Equal(t, []float64{8, 8}, MatchTotals(matches, CornersFor))

	avg := MatchAverages(matches, []string{CornersFor})
	assert.Equal(t, Some(8), avg[CornersFor])
	assert.Equal(t, Some(2), avg[GoalsKey], "goal average keeps the match without stats")
}
