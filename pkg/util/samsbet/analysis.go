package samsbet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"golang.org/x/sync/errgroup"
)

// MatchOptions tunes a live match analysis
type MatchOptions struct {
	FilterByVenue bool // home team figures from home games only, away from away games
	WithH2H       bool
	H2HStats      bool // fetch per match statistics of every H2H meeting
	Save          bool
}

// DefaultMatchOptions is a full analysis without persistence
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{WithH2H: true, H2HStats: true}
}

// MatchInputs is everything the engine needs to analyse a fixture. It is
// what gets persisted for a run.
type MatchInputs struct {
	Run         AnalysisRun
	Players     map[string][]odds.StatRecord
	Goalkeepers map[string][]odds.StatRecord
	Teams       map[string]*odds.StatRecord
	Positions   map[string]int
	H2H         []odds.H2HMatchRecord
	LastMatch   []LastMatchLine // not persisted
}

func newMatchInputs() *MatchInputs {
	return &MatchInputs{
		Players:     map[string][]odds.StatRecord{},
		Goalkeepers: map[string][]odds.StatRecord{},
		Teams:       map[string]*odds.StatRecord{},
		Positions:   map[string]int{},
	}
}

// PlayerAnalysis is the shots on target market of one player
type PlayerAnalysis struct {
	odds.EntityAnalysis
	Ratios    odds.PlayerRatios `json:"ratios"`
	LastMatch *LastMatchLine    `json:"lastMatch,omitempty"`
}

// GoalkeeperAnalysis is the saves market of one goalkeeper
type GoalkeeperAnalysis struct {
	odds.EntityAnalysis
	CleanSheetPercentage odds.Optional `json:"cleanSheetPercentage"`
	SavesInsideBox       float64       `json:"savesInsideBox"`
	SavesOutsideBox      float64       `json:"savesOutsideBox"`
	LastMatchSaves       *float64      `json:"lastMatchSaves,omitempty"`
}

// TeamSummary is the season summary of one side
type TeamSummary struct {
	Team          string `json:"team"`
	Position      int    `json:"position,omitempty"`
	MatchesPlayed int    `json:"matchesPlayed"`
	odds.TeamRatios
	BigChancesConcededPerMatch odds.Optional `json:"bigChancesConcededPerMatch"`
}

// SideReport is the analysis of one team in a fixture
type SideReport struct {
	Team          string               `json:"team"`
	Summary       *TeamSummary         `json:"summary,omitempty"`
	Players       []PlayerAnalysis     `json:"players"`
	SquadOnTarget odds.EntityAnalysis  `json:"squadShotsOnTarget"`
	Goalkeepers   []GoalkeeperAnalysis `json:"goalkeepers"`
}

// MatchReport is the full pre-match analysis of a fixture
type MatchReport struct {
	RunID      string          `json:"runId,omitempty"`
	EventID    int64           `json:"eventId"`
	Tournament string          `json:"tournament,omitempty"`
	StartTime  int64           `json:"startTime,omitempty"`
	Home       SideReport      `json:"home"`
	Away       SideReport      `json:"away"`
	H2H        *odds.H2HReport `json:"h2h,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// Service ties the provider client, the engine and the store together
type Service struct {
	cfg    *Config
	client *Client
	store  *Store
}

// NewService returns a service. store may be nil, saving and re-running are
// then unavailable.
func NewService(cfg *Config, client *Client, store *Store) *Service {
	return &Service{cfg: cfg, client: client, store: store}
}

// MatchAnalysis fetches everything about a fixture and analyses it
func (s *Service) MatchAnalysis(ctx context.Context, eventID int64, opts MatchOptions) (*MatchReport, error) {
	if s.client == nil {
		return nil, errors.New("no provider client configured")
	}
	in, warnings, err := s.FetchMatchInputs(ctx, eventID, opts)
	if err != nil {
		return nil, err
	}
	if opts.Save {
		if err := s.SaveInputs(ctx, in); err != nil {
			return nil, err
		}
	}
	report, err := BuildMatchReport(ctx, in, s.cfg)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(warnings, report.Warnings...)
	if opts.Save {
		report.RunID = in.Run.ID
	}
	return report, nil
}

// FetchMatchInputs collects the raw figures of a fixture from the provider.
// Missing optional pieces become warnings rather than errors.
func (s *Service) FetchMatchInputs(ctx context.Context, eventID int64, opts MatchOptions) (*MatchInputs, []string, error) {
	ev, err := s.client.EventDetails(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	ut, season := ev.Tournament.UniqueTournament.ID, ev.Season.ID
	if ut == 0 || season == 0 || ev.HomeTeam.ID == 0 || ev.AwayTeam.ID == 0 {
		return nil, nil, fmt.Errorf("event %d is missing tournament, season or team ids: %w", eventID, ErrNoStats)
	}

	in := newMatchInputs()
	in.Run = AnalysisRun{
		EventID:      ev.ID,
		CustomID:     ev.CustomID,
		HomeTeamID:   ev.HomeTeam.ID,
		HomeTeam:     ev.HomeTeam.Name,
		AwayTeamID:   ev.AwayTeam.ID,
		AwayTeam:     ev.AwayTeam.Name,
		Tournament:   ev.Tournament.Name,
		TournamentID: ev.Tournament.ID,
		SeasonID:     season,
		StartTime:    ev.StartTimestamp,
	}

	var (
		mu       sync.Mutex
		warnings []string
	)
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		logger.Warn(msg)
		mu.Lock()
		warnings = append(warnings, msg)
		mu.Unlock()
	}

	sides := []struct {
		side string
		team Team
	}{{SideHome, ev.HomeTeam}, {SideAway, ev.AwayTeam}}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	var standings []StandingRow
	g.Go(func() error {
		rows, err := s.client.Standings(gctx, ev.Tournament.ID, season)
		if err != nil {
			warn("standings unavailable: %v", err)
			return nil
		}
		standings = rows
		return nil
	})

	teamStats := make([]*TeamSeasonStats, len(sides))
	lastMatch := make([][]LastMatchLine, len(sides))
	for i, sd := range sides {
		i, sd := i, sd
		g.Go(func() error {
			venue := ""
			if opts.FilterByVenue {
				venue = sd.side
			}
			rows, err := s.client.PlayerStats(gctx, ut, season, sd.team.ID, venue)
			if err != nil {
				return fmt.Errorf("player statistics of %s: %w", sd.team.Name, err)
			}
			recs := make([]odds.StatRecord, 0, len(rows))
			for _, r := range rows {
				rec, err := PlayerRecord(r, sd.team.Name)
				if err != nil {
					warn("skipping player %s: %v", r.Player.Name, err)
					continue
				}
				recs = append(recs, rec)
			}
			mu.Lock()
			in.Players[sd.side] = recs
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			rows, err := s.client.GoalkeeperStats(gctx, ut, season, sd.team.ID)
			if err != nil {
				return fmt.Errorf("goalkeeper statistics of %s: %w", sd.team.Name, err)
			}
			recs := make([]odds.StatRecord, 0, len(rows))
			for _, r := range rows {
				rec, err := GoalkeeperRecord(r, sd.team.Name)
				if err != nil {
					warn("skipping goalkeeper %s: %v", r.Player.Name, err)
					continue
				}
				recs = append(recs, rec)
			}
			mu.Lock()
			in.Goalkeepers[sd.side] = recs
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			st, err := s.client.TeamStats(gctx, sd.team.ID, ut, season)
			if err != nil {
				warn("team statistics of %s unavailable: %v", sd.team.Name, err)
				return nil
			}
			teamStats[i] = &st
			return nil
		})
		g.Go(func() error {
			last, ok, err := s.client.LastEvent(gctx, sd.team.ID)
			if err != nil || !ok {
				if err != nil {
					warn("last event of %s unavailable: %v", sd.team.Name, err)
				}
				return nil
			}
			lineups, err := s.client.EventLineups(gctx, last.ID)
			if err != nil {
				warn("lineups of event %d unavailable: %v", last.ID, err)
				return nil
			}
			lastMatch[i] = LastMatchLines(lineups)
			return nil
		})
	}
	if opts.WithH2H && ev.CustomID != "" {
		g.Go(func() error {
			matches, err := s.fetchH2H(gctx, ev.CustomID, opts.H2HStats)
			if err != nil {
				warn("head to head unavailable: %v", err)
				return nil
			}
			in.H2H = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	rowsByTeam := map[int64]StandingRow{}
	for _, r := range standings {
		rowsByTeam[r.Team.ID] = r
	}
	for i, sd := range sides {
		in.LastMatch = append(in.LastMatch, lastMatch[i]...)
		row := rowsByTeam[sd.team.ID]
		in.Positions[sd.side] = row.Position
		if teamStats[i] == nil {
			continue
		}
		rec, err := TeamRecord(sd.team.Name, *teamStats[i], row)
		if err != nil {
			warn("team record of %s: %v", sd.team.Name, err)
			continue
		}
		in.Teams[sd.side] = &rec
	}
	return in, warnings, nil
}

// fetchH2H loads the past meetings of a fixture, optionally with the per
// match statistics of each meeting
func (s *Service) fetchH2H(ctx context.Context, customID string, withStats bool) ([]odds.H2HMatchRecord, error) {
	events, err := s.client.H2HEvents(ctx, customID)
	if err != nil {
		return nil, err
	}
	matches := H2HMatches(events)
	if !withStats {
		return matches, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range matches {
		i := i
		g.Go(func() error {
			periods, err := s.client.EventStatistics(gctx, matches[i].EventID)
			if err != nil {
				logger.Warn("Statistics of H2H event unavailable", matches[i].EventID, err)
				return nil
			}
			if len(periods) == 0 {
				return nil
			}
			home, away := SumPeriods(periods)
			AttachStats(&matches[i], home, away)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// BuildMatchReport runs the engine over the collected inputs
func BuildMatchReport(ctx context.Context, in *MatchInputs, cfg *Config) (*MatchReport, error) {
	report := &MatchReport{
		EventID:    in.Run.EventID,
		Tournament: in.Run.Tournament,
		StartTime:  in.Run.StartTime,
	}

	lastByName := map[string]LastMatchLine{}
	for _, l := range in.LastMatch {
		lastByName[odds.NormalizeTeamName(l.PlayerName)] = l
	}

	for _, sd := range []struct {
		side string
		team string
		dst  *SideReport
	}{{SideHome, in.Run.HomeTeam, &report.Home}, {SideAway, in.Run.AwayTeam, &report.Away}} {
		sr := SideReport{Team: sd.team}

		players, squad, err := analyzePlayers(ctx, in.Players[sd.side], lastByName, cfg)
		if err != nil {
			return nil, err
		}
		sr.Players, sr.SquadOnTarget = players, squad

		sr.Goalkeepers, err = analyzeGoalkeepers(ctx, in.Goalkeepers[sd.side], lastByName, cfg)
		if err != nil {
			return nil, err
		}

		if rec := in.Teams[sd.side]; rec != nil {
			sr.Summary = &TeamSummary{
				Team:                       sd.team,
				Position:                   in.Positions[sd.side],
				MatchesPlayed:              rec.MatchesPlayed,
				TeamRatios:                 odds.NewTeamRatios(*rec),
				BigChancesConcededPerMatch: odds.ComputeRate(rec.Counter(BigChancesAgainst), rec.MatchesPlayed),
			}
		} else {
			report.Warnings = append(report.Warnings, fmt.Sprintf("no season summary for %s", sd.team))
		}
		*sd.dst = sr
	}

	if len(in.H2H) > 0 {
		h2h, err := odds.BuildH2HReport(in.H2H, in.Run.HomeTeam, in.Run.AwayTeam, cfg.H2HOptions())
		if err != nil {
			return nil, fmt.Errorf("head to head report: %w", err)
		}
		report.H2H = &h2h
	}
	return report, nil
}

func analyzePlayers(ctx context.Context, recs []odds.StatRecord, last map[string]LastMatchLine, cfg *Config) ([]PlayerAnalysis, odds.EntityAnalysis, error) {
	rows := odds.NewRateRows(recs)
	as, err := odds.AnalyzeBatch(ctx, rows, odds.ShotsOnTarget, cfg.PlayerShotLines, cfg.LineSpread, cfg.Workers)
	if err != nil {
		return nil, odds.EntityAnalysis{}, err
	}
	out := make([]PlayerAnalysis, len(as))
	for i, a := range as {
		out[i] = PlayerAnalysis{EntityAnalysis: a, Ratios: odds.NewPlayerRatios(rows[i].StatRecord)}
		if l, ok := last[odds.NormalizeTeamName(a.EntityName)]; ok {
			out[i].LastMatch = &l
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rateBefore(out[i].Rate, out[j].Rate)
	})

	var squad odds.EntityAnalysis
	if len(rows) > 0 {
		squad, err = odds.AnalyzeEntity(odds.AggregateTeam(rows), odds.ShotsOnTarget, nil, cfg.LineSpread)
		if err != nil {
			return nil, odds.EntityAnalysis{}, err
		}
	}
	return out, squad, nil
}

func analyzeGoalkeepers(ctx context.Context, recs []odds.StatRecord, last map[string]LastMatchLine, cfg *Config) ([]GoalkeeperAnalysis, error) {
	rows := odds.NewRateRows(recs)
	as, err := odds.AnalyzeBatch(ctx, rows, odds.Saves, cfg.SaveLines, cfg.LineSpread, cfg.Workers)
	if err != nil {
		return nil, err
	}
	out := make([]GoalkeeperAnalysis, len(as))
	for i, a := range as {
		rec := rows[i].StatRecord
		out[i] = GoalkeeperAnalysis{
			EntityAnalysis:       a,
			CleanSheetPercentage: odds.CleanSheetPercentage(rec),
			SavesInsideBox:       rec.Counter(SavesInsideBox),
			SavesOutsideBox:      rec.Counter(SavesOutsideBox),
		}
		if l, ok := last[odds.NormalizeTeamName(a.EntityName)]; ok && l.Saves > 0 {
			saves := l.Saves
			out[i].LastMatchSaves = &saves
		}
	}
	// most used keeper first
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchesPlayed > out[j].MatchesPlayed })
	return out, nil
}

// rateBefore orders defined rates descending ahead of undefined ones
func rateBefore(a, b odds.Optional) bool {
	va, oka := a.Get()
	vb, okb := b.Get()
	if oka != okb {
		return oka
	}
	return va > vb
}

// SaveInputs persists a run with its snapshots in one transaction
func (s *Service) SaveInputs(ctx context.Context, in *MatchInputs) error {
	if s.store == nil {
		return errors.New("no store configured")
	}
	if err := in.Run.BeforeSave(); err != nil {
		return err
	}
	objects := []Persistable{&in.Run}
	for _, side := range []string{SideHome, SideAway} {
		for i, rec := range in.Players[side] {
			objects = append(objects, NewStatSnapshot(in.Run.ID, side, KindPlayer, i, rec))
		}
		for i, rec := range in.Goalkeepers[side] {
			objects = append(objects, NewStatSnapshot(in.Run.ID, side, KindGoalkeeper, i, rec))
		}
		if rec := in.Teams[side]; rec != nil {
			objects = append(objects, NewStatSnapshot(in.Run.ID, side, KindTeam, in.Positions[side], *rec))
		}
	}
	for i, m := range in.H2H {
		snap, err := NewH2HSnapshot(in.Run.ID, i, m)
		if err != nil {
			return err
		}
		objects = append(objects, snap)
	}
	if err := s.store.BulkSave(ctx, objects); err != nil {
		return fmt.Errorf("failed to save run for event %d: %w", in.Run.EventID, err)
	}
	logger.Info("Saved analysis run", in.Run.ID, "objects:", len(objects))
	return nil
}

// LoadInputs rebuilds the inputs of a persisted run
func (s *Service) LoadInputs(ctx context.Context, runID string) (*MatchInputs, error) {
	if s.store == nil {
		return nil, errors.New("no store configured")
	}
	in := newMatchInputs()
	if err := s.store.FindByPrimaryKey(ctx, &in.Run, map[string]any{"id": runID}); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	snaps, err := FindWhere[StatSnapshot](ctx, s.store, "runId = ? ORDER BY side, kind, position", runID)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		rec, err := snap.ToRecord()
		if err != nil {
			return nil, err
		}
		switch snap.Kind {
		case KindPlayer:
			in.Players[snap.Side] = append(in.Players[snap.Side], rec)
		case KindGoalkeeper:
			in.Goalkeepers[snap.Side] = append(in.Goalkeepers[snap.Side], rec)
		case KindTeam:
			in.Teams[snap.Side] = &rec
			in.Positions[snap.Side] = snap.Position
		default:
			logger.Warn("Unknown snapshot kind", snap.Kind)
		}
	}

	h2h, err := FindWhere[H2HSnapshot](ctx, s.store, "runId = ? ORDER BY position", runID)
	if err != nil {
		return nil, err
	}
	for _, snap := range h2h {
		m, err := snap.ToMatch()
		if err != nil {
			return nil, err
		}
		in.H2H = append(in.H2H, m)
	}
	return in, nil
}

// Rerun re-analyses a persisted run offline with the current configuration
func (s *Service) Rerun(ctx context.Context, runID string) (*MatchReport, error) {
	in, err := s.LoadInputs(ctx, runID)
	if err != nil {
		return nil, err
	}
	report, err := BuildMatchReport(ctx, in, s.cfg)
	if err != nil {
		return nil, err
	}
	report.RunID = in.Run.ID
	return report, nil
}

// Runs lists persisted runs, most recent first
func (s *Service) Runs(ctx context.Context) ([]*AnalysisRun, error) {
	if s.store == nil {
		return nil, errors.New("no store configured")
	}
	runs, err := FindAll[AnalysisRun](ctx, s.store)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedAt > runs[j].CreatedAt })
	return runs, nil
}

// DeleteRun removes a persisted run with its snapshots and returns how many
// snapshots went with it
func (s *Service) DeleteRun(ctx context.Context, runID string) (int64, error) {
	if s.store == nil {
		return 0, errors.New("no store configured")
	}
	run := &AnalysisRun{ID: runID}
	ok, err := s.store.Exists(ctx, run)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}

	var removed int64
	for _, obj := range []Persistable{&StatSnapshot{}, &H2HSnapshot{}} {
		n, err := s.store.DeleteWhere(ctx, obj, "runId = ?", runID)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if err := s.store.Delete(ctx, run); err != nil {
		return removed, err
	}
	logger.Info("Deleted analysis run", runID, "snapshots:", removed)
	return removed, nil
}

// H2HReport builds the head to head report of a fixture straight from the
// provider. Callers usually start from Config.H2HOptions.
func (s *Service) H2HReport(ctx context.Context, eventID int64, withStats bool, opts odds.H2HOptions) (*odds.H2HReport, error) {
	if s.client == nil {
		return nil, errors.New("no provider client configured")
	}
	ev, err := s.client.EventDetails(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.CustomID == "" {
		return nil, fmt.Errorf("event %d has no head to head id: %w", eventID, ErrNoStats)
	}
	matches, err := s.fetchH2H(ctx, ev.CustomID, withStats)
	if err != nil {
		return nil, err
	}
	report, err := odds.BuildH2HReport(matches, ev.HomeTeam.Name, ev.AwayTeam.Name, opts)
	if err != nil {
		return nil, err
	}
	return &report, nil
}
