package odds

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidInput is returned when a caller breaks a value contract,
// e.g. a negative counter or an unsupported betting line
var ErrInvalidInput = errors.New("invalid input")

// Named counters understood by the engine
const (
	TotalShots           = "total_shots"
	ShotsOnTarget        = "shots_on_target"
	Saves                = "saves"
	GoalsFor             = "goals_for"
	GoalsAgainst         = "goals_against"
	GoalsScored          = "goals_scored"
	CornersFor           = "corners_for"
	CornersAgainst       = "corners_against"
	ExpectedGoals        = "expected_goals"
	MinutesPlayed        = "minutes_played"
	CleanSheets          = "clean_sheets"
	BigChances           = "big_chances"
	BigChancesCreated    = "big_chances_created"
	ShotsInsideBox       = "shots_inside_box"
	PenaltyGoals         = "penalty_goals"
	ShotsAgainst         = "shots_against"
	ShotsOnTargetAgainst = "shots_on_target_against"
	MatchesStarted       = "matches_started"
	Appearances          = "appearances"
)

// StatRecord is one observation unit: a player season, a team season or a
// single match seen from one side. Counters are cumulative totals over
// MatchesPlayed games.
type StatRecord struct {
	EntityName    string             `json:"entityName"`
	TeamName      string             `json:"teamName,omitempty"`
	MatchesPlayed int                `json:"matchesPlayed"`
	Counters      map[string]float64 `json:"counters"`
}

// NewStatRecord builds a validated StatRecord. The counters map is copied.
func NewStatRecord(entity, team string, matches int, counters map[string]float64) (StatRecord, error) {
	rec := StatRecord{
		EntityName:    entity,
		TeamName:      team,
		MatchesPlayed: matches,
		Counters:      make(map[string]float64, len(counters)),
	}
	for k, v := range counters {
		rec.Counters[k] = v
	}
	if err := rec.Validate(); err != nil {
		return StatRecord{}, err
	}
	return rec, nil
}

// Validate checks the record invariants, useful after decoding from JSON
func (r StatRecord) Validate() error {
	if r.MatchesPlayed < 0 {
		return fmt.Errorf("%w: %s has negative matches played (%d)", ErrInvalidInput, r.EntityName, r.MatchesPlayed)
	}
	for k, v := range r.Counters {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s counter %s is not a finite number", ErrInvalidInput, r.EntityName, k)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s counter %s is negative (%v)", ErrInvalidInput, r.EntityName, k, v)
		}
	}
	return nil
}

// Counter returns the named counter, 0 when the record does not carry it
func (r StatRecord) Counter(name string) float64 {
	return r.Counters[name]
}

// Lookup returns a counter and whether the record carries it
func (r StatRecord) Lookup(name string) (float64, bool) {
	v, ok := r.Counters[name]
	return v, ok
}

// CounterNames returns the counter names in a stable order
func (r StatRecord) CounterNames() []string {
	names := make([]string, 0, len(r.Counters))
	for k := range r.Counters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RateRow is a StatRecord with a per-match rate for every counter
type RateRow struct {
	StatRecord
	Rates map[string]Optional `json:"rates"`
}

// Rate returns the per-match rate of the named counter
func (r RateRow) Rate(counter string) Optional {
	if v, ok := r.Rates[counter]; ok {
		return v
	}
	return ComputeRate(r.Counter(counter), r.MatchesPlayed)
}

// Consistency is the three-tier reliability label of a rate or sample
type Consistency string

const (
	High   Consistency = "High"
	Medium Consistency = "Medium"
	Low    Consistency = "Low"
)

// ConfidenceInterval is a 95% interval around a per-match rate
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// LineKind describes how a betting line settles
type LineKind string

const (
	HalfLine        LineKind = "half"
	WholeLine       LineKind = "whole"
	QuarterLowLine  LineKind = "quarter_low"  // e.g. 2.25, half stake on the whole line below
	QuarterHighLine LineKind = "quarter_high" // e.g. 2.75, half stake on the whole line above
)

// OddsEntry holds the fair over/under market for one line.
// For whole and quarter lines the probabilities are break-even
// probabilities, so that ProbOver+ProbUnder is always 1.
type OddsEntry struct {
	Line      float64  `json:"line"`
	Kind      LineKind `json:"kind"`
	ProbOver  float64  `json:"probOver"`
	ProbUnder float64  `json:"probUnder"`
	ProbPush  float64  `json:"probPush,omitempty"`
	OddOver   Odd      `json:"oddOver"`
	OddUnder  Odd      `json:"oddUnder"`
}

// H2HMatchRecord is one historical meeting between two teams.
// MissingStats marks a match for which only the score is known.
type H2HMatchRecord struct {
	EventID      int64              `json:"eventId,omitempty"`
	StartTime    int64              `json:"startTime,omitempty"`
	HomeTeam     string             `json:"homeTeam"`
	AwayTeam     string             `json:"awayTeam"`
	HomeGoals    int                `json:"homeGoals"`
	AwayGoals    int                `json:"awayGoals"`
	Home         map[string]float64 `json:"home,omitempty"`
	Away         map[string]float64 `json:"away,omitempty"`
	MissingStats bool               `json:"missingStats,omitempty"`
}

// TrackedStats are the per-side counters inspected to decide whether a match
// carries statistics at all
var TrackedStats = []string{TotalShots, ShotsOnTarget, Saves, CornersFor}

// Validate rejects negative goals and counters
func (m H2HMatchRecord) Validate() error {
	if m.HomeGoals < 0 || m.AwayGoals < 0 {
		return fmt.Errorf("%w: negative score %d-%d in %s v %s", ErrInvalidInput, m.HomeGoals, m.AwayGoals, m.HomeTeam, m.AwayTeam)
	}
	for _, side := range []map[string]float64{m.Home, m.Away} {
		for k, v := range side {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s v %s counter %s is %v", ErrInvalidInput, m.HomeTeam, m.AwayTeam, k, v)
			}
		}
	}
	return nil
}

// StatsAvailable reports whether the match can feed stat based series.
// Both sides reporting zero on every tracked stat means the provider had
// nothing for this match.
func (m H2HMatchRecord) StatsAvailable() bool {
	if m.MissingStats {
		return false
	}
	for _, name := range TrackedStats {
		if m.Home[name] != 0 || m.Away[name] != 0 {
			return true
		}
	}
	return false
}

// TotalGoals is the combined score of the match
func (m H2HMatchRecord) TotalGoals() int {
	return m.HomeGoals + m.AwayGoals
}

// H2HSeries is a pair of team-centric series derived from a head-to-head
// history. Values are aligned, index i of both series is the same match.
type H2HSeries struct {
	TeamA    string    `json:"teamA"`
	TeamB    string    `json:"teamB"`
	Counter  string    `json:"counter"`
	SeriesA  []float64 `json:"seriesA"`
	SeriesB  []float64 `json:"seriesB"`
	EventIDs []int64   `json:"eventIds,omitempty"`
}

// Len is the number of matches in the series
func (s H2HSeries) Len() int {
	return len(s.SeriesA)
}
