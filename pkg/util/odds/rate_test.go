package odds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRate(t *testing.T) {
	assert.False(t, ComputeRate(12, 0).Defined())

	v, ok := ComputeRate(10, 3).Get()
	require.True(t, ok)
	assert.Equal(t, 3.33, v)

	v, ok = ComputeRate(0, 4).Get()
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestNewStatRecordValidation(t *testing.T) {
	_, err := NewStatRecord("A", "T", -1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewStatRecord("A", "T", 2, map[string]float64{TotalShots: -3})
	assert.ErrorIs(t, err, ErrInvalidInput)

	counters := map[string]float64{TotalShots: 3}
	rec, err := NewStatRecord("A", "T", 2, counters)
	require.NoError(t, err)
	counters[TotalShots] = 99
	assert.Equal(t, 3.0, rec.Counter(TotalShots), "record must not alias caller map")
}

func TestNewRateRow(t *testing.T) {
	rec, err := NewStatRecord("Keeper", "Team", 0, map[string]float64{Saves: 4})
	require.NoError(t, err)
	row := NewRateRow(rec)
	assert.False(t, row.Rate(Saves).Defined(), "no matches means no rate, not zero")

	rec.MatchesPlayed = 8
	row = NewRateRow(rec)
	v, ok := row.Rate(Saves).Get()
	require.True(t, ok)
	assert.Equal(t, 0.5, v)

	data, err := json.Marshal(NewRateRow(StatRecord{EntityName: "x", Counters: map[string]float64{Saves: 1}}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"saves":null`)
}

func TestPlayerRatios(t *testing.T) {
	rec, err := NewStatRecord("Striker", "Team", 10, map[string]float64{
		TotalShots: 30, ShotsOnTarget: 12, MinutesPlayed: 810,
	})
	require.NoError(t, err)
	r := NewPlayerRatios(rec)

	assert.Equal(t, Some(3), r.ShotsPerMatch)
	assert.Equal(t, Some(1.2), r.ShotsOnTargetPerMatch)
	assert.Equal(t, Some(27), r.MinutesPerShot)
	assert.Equal(t, Some(67.5), r.MinutesPerShotOnTarget)
	assert.Equal(t, Some(81), r.MinutesPerMatch)
	assert.Equal(t, 40.0, r.Efficiency)

	idle, err := NewStatRecord("Sub", "Team", 2, map[string]float64{MinutesPlayed: 20})
	require.NoError(t, err)
	r = NewPlayerRatios(idle)
	assert.Equal(t, 0.0, r.Efficiency)
	assert.False(t, r.MinutesPerShot.Defined())
	assert.False(t, r.MinutesPerShotOnTarget.Defined())
}

func TestTeamRatios(t *testing.T) {
	rec, err := NewStatRecord("Team", "Team", 10, map[string]float64{
		TotalShots: 140, ShotsInsideBox: 91, GoalsFor: 18, PenaltyGoals: 2, BigChances: 32,
		CleanSheets: 3, CornersFor: 55,
	})
	require.NoError(t, err)
	tr := NewTeamRatios(rec)
	assert.Equal(t, Some(14), tr.ShotsPerMatch)
	assert.Equal(t, Some(65), tr.DangerIndex)
	assert.Equal(t, Some(50), tr.BigChanceConversion)
	assert.Equal(t, Some(30), tr.CleanSheetPercentage)
	assert.Equal(t, Some(5.5), tr.CornersPerMatch)

	assert.False(t, tr.GoalsConcededPerMatch.Defined(), "goals against was never recorded")

	rec.Counters[GoalsScored] = 12
	rec.Counters[GoalsAgainst] = 7
	tr = NewTeamRatios(rec)
	assert.Equal(t, Some(31.25), tr.BigChanceConversion)
	assert.Equal(t, Some(0.7), tr.GoalsConcededPerMatch)

	empty := NewTeamRatios(StatRecord{Counters: map[string]float64{TotalShots: 5}})
	assert.False(t, empty.ShotsPerMatch.Defined())
	assert.False(t, empty.DangerIndex.Defined())
	assert.False(t, empty.CleanSheetPercentage.Defined())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.96, Round2(2.965))
	assert.Equal(t, 0.12, Round2(0.125))
	assert.Equal(t, 0.14, Round2(0.135))
	assert.Equal(t, 0.38, Round2(0.375))
	assert.Equal(t, -0.12, Round2(-0.125))
	assert.Equal(t, 0.34, Round2(0.3374))
	assert.Equal(t, 1.0, Round2(0.999))
}
