package samsbet

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"github.com/google/uuid"
)

// ErrNoStats is returned when the provider has no statistics for a request
var ErrNoStats = errors.New("no statistics available")

// Snapshot kinds
const (
	KindPlayer     = "player"
	KindGoalkeeper = "goalkeeper"
	KindTeam       = "team"
)

// Sides of a fixture
const (
	SideHome = "home"
	SideAway = "away"
)

// AnalysisRun is one persisted pre-match analysis. Only the raw inputs are
// stored, odds are always recomputed from the snapshots.
type AnalysisRun struct {
	ID           string `json:"id" column:"id" dbtype:"TEXT" primary:"true"`
	EventID      int64  `json:"eventId" column:"eventId" dbtype:"INTEGER NOT NULL" index:"true"`
	CustomID     string `json:"customId,omitempty" column:"customId" dbtype:"TEXT"`
	HomeTeamID   int64  `json:"homeTeamId" column:"homeTeamId" dbtype:"INTEGER"`
	HomeTeam     string `json:"homeTeam" column:"homeTeam" dbtype:"TEXT NOT NULL"`
	AwayTeamID   int64  `json:"awayTeamId" column:"awayTeamId" dbtype:"INTEGER"`
	AwayTeam     string `json:"awayTeam" column:"awayTeam" dbtype:"TEXT NOT NULL"`
	Tournament   string `json:"tournament,omitempty" column:"tournament" dbtype:"TEXT"`
	TournamentID int64  `json:"tournamentId,omitempty" column:"tournamentId" dbtype:"INTEGER"`
	SeasonID     int64  `json:"seasonId,omitempty" column:"seasonId" dbtype:"INTEGER"`
	StartTime    int64  `json:"startTime,omitempty" column:"startTime" dbtype:"INTEGER"`
	CreatedAt    int64  `json:"createdAt" column:"createdAt" dbtype:"INTEGER NOT NULL" index:"true"`
}

// GetTableName implements Persistable
func (r *AnalysisRun) GetTableName() string {
	return "analysis_runs"
}

// GetPrimaryKey implements Persistable
func (r *AnalysisRun) GetPrimaryKey() map[string]any {
	return map[string]any{"id": r.ID}
}

// BeforeSave assigns an id and creation time to new runs
func (r *AnalysisRun) BeforeSave() error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	if r.EventID <= 0 {
		return fmt.Errorf("analysis run needs an event id")
	}
	return nil
}

// AfterSave implements Persistable
func (r *AnalysisRun) AfterSave() error {
	return nil
}

// StatSnapshot is one StatRecord captured during a run
type StatSnapshot struct {
	ID           string             `json:"id" column:"id" dbtype:"TEXT" primary:"true"`
	RunID        string             `json:"runId" column:"runId" dbtype:"TEXT NOT NULL" index:"true"`
	Side         string             `json:"side" column:"side" dbtype:"TEXT NOT NULL"`
	Kind         string             `json:"kind" column:"kind" dbtype:"TEXT NOT NULL" index:"true"`
	Position     int                `json:"position" column:"position" dbtype:"INTEGER DEFAULT 0"`
	EntityName   string             `json:"entityName" column:"entityName" dbtype:"TEXT NOT NULL"`
	TeamName     string             `json:"teamName" column:"teamName" dbtype:"TEXT"`
	Matches      int                `json:"matches" column:"matches" dbtype:"INTEGER NOT NULL"`
	CountersJSON string             `json:"-" column:"counters" dbtype:"TEXT"`
	Counters     map[string]float64 `json:"counters"`
}

// NewStatSnapshot captures rec for the given run
func NewStatSnapshot(runID, side, kind string, position int, rec odds.StatRecord) *StatSnapshot {
	return &StatSnapshot{
		RunID:      runID,
		Side:       side,
		Kind:       kind,
		Position:   position,
		EntityName: rec.EntityName,
		TeamName:   rec.TeamName,
		Matches:    rec.MatchesPlayed,
		Counters:   rec.Counters,
	}
}

// GetTableName implements Persistable
func (s *StatSnapshot) GetTableName() string {
	return "stat_snapshots"
}

// GetPrimaryKey implements Persistable
func (s *StatSnapshot) GetPrimaryKey() map[string]any {
	return map[string]any{"id": s.ID}
}

// BeforeSave assigns an id and encodes the counters
func (s *StatSnapshot) BeforeSave() error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.RunID == "" {
		return fmt.Errorf("snapshot %s has no run id", s.EntityName)
	}
	data, err := json.Marshal(s.Counters)
	if err != nil {
		return fmt.Errorf("failed to encode counters of %s: %w", s.EntityName, err)
	}
	s.CountersJSON = string(data)
	return nil
}

// AfterSave implements Persistable
func (s *StatSnapshot) AfterSave() error {
	return nil
}

// ToRecord decodes the snapshot back into a validated StatRecord
func (s *StatSnapshot) ToRecord() (odds.StatRecord, error) {
	counters := s.Counters
	if counters == nil && s.CountersJSON != "" {
		if err := json.Unmarshal([]byte(s.CountersJSON), &counters); err != nil {
			return odds.StatRecord{}, fmt.Errorf("failed to decode counters of %s: %w", s.EntityName, err)
		}
	}
	return odds.NewStatRecord(s.EntityName, s.TeamName, s.Matches, counters)
}

// H2HSnapshot is one historical meeting captured during a run
type H2HSnapshot struct {
	ID           string `json:"id" column:"id" dbtype:"TEXT" primary:"true"`
	RunID        string `json:"runId" column:"runId" dbtype:"TEXT NOT NULL" index:"true"`
	Position     int    `json:"position" column:"position" dbtype:"INTEGER DEFAULT 0"`
	EventID      int64  `json:"eventId" column:"eventId" dbtype:"INTEGER"`
	StartTime    int64  `json:"startTime" column:"startTime" dbtype:"INTEGER"`
	HomeTeam     string `json:"homeTeam" column:"homeTeam" dbtype:"TEXT NOT NULL"`
	AwayTeam     string `json:"awayTeam" column:"awayTeam" dbtype:"TEXT NOT NULL"`
	HomeGoals    int    `json:"homeGoals" column:"homeGoals" dbtype:"INTEGER"`
	AwayGoals    int    `json:"awayGoals" column:"awayGoals" dbtype:"INTEGER"`
	HomeStats    string `json:"homeStats" column:"homeStats" dbtype:"TEXT"`
	AwayStats    string `json:"awayStats" column:"awayStats" dbtype:"TEXT"`
	MissingStats bool   `json:"missingStats" column:"missingStats" dbtype:"INTEGER DEFAULT 0"`
}

// NewH2HSnapshot captures m for the given run
func NewH2HSnapshot(runID string, position int, m odds.H2HMatchRecord) (*H2HSnapshot, error) {
	home, err := json.Marshal(m.Home)
	if err != nil {
		return nil, fmt.Errorf("failed to encode home stats: %w", err)
	}
	away, err := json.Marshal(m.Away)
	if err != nil {
		return nil, fmt.Errorf("failed to encode away stats: %w", err)
	}
	return &H2HSnapshot{
		RunID:        runID,
		Position:     position,
		EventID:      m.EventID,
		StartTime:    m.StartTime,
		HomeTeam:     m.HomeTeam,
		AwayTeam:     m.AwayTeam,
		HomeGoals:    m.HomeGoals,
		AwayGoals:    m.AwayGoals,
		HomeStats:    string(home),
		AwayStats:    string(away),
		MissingStats: m.MissingStats,
	}, nil
}

// GetTableName implements Persistable
func (h *H2HSnapshot) GetTableName() string {
	return "h2h_snapshots"
}

// GetPrimaryKey implements Persistable
func (h *H2HSnapshot) GetPrimaryKey() map[string]any {
	return map[string]any{"id": h.ID}
}

// BeforeSave assigns an id
func (h *H2HSnapshot) BeforeSave() error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.RunID == "" {
		return fmt.Errorf("h2h snapshot %d has no run id", h.EventID)
	}
	return nil
}

// AfterSave implements Persistable
func (h *H2HSnapshot) AfterSave() error {
	return nil
}

// ToMatch decodes the snapshot back into a validated H2HMatchRecord
func (h *H2HSnapshot) ToMatch() (odds.H2HMatchRecord, error) {
	m := odds.H2HMatchRecord{
		EventID:      h.EventID,
		StartTime:    h.StartTime,
		HomeTeam:     h.HomeTeam,
		AwayTeam:     h.AwayTeam,
		HomeGoals:    h.HomeGoals,
		AwayGoals:    h.AwayGoals,
		MissingStats: h.MissingStats,
	}
	for _, part := range []struct {
		raw string
		dst *map[string]float64
	}{{h.HomeStats, &m.Home}, {h.AwayStats, &m.Away}} {
		if part.raw == "" || part.raw == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(part.raw), part.dst); err != nil {
			return odds.H2HMatchRecord{}, fmt.Errorf("failed to decode stats of event %d: %w", h.EventID, err)
		}
	}
	if err := m.Validate(); err != nil {
		return odds.H2HMatchRecord{}, err
	}
	return m, nil
}
