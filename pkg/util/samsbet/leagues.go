package samsbet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ErrLeagueExists is returned when adding a league already on file without
// the overwrite flag
var ErrLeagueExists = errors.New("league already exists")

// LastEventInfo is the latest fixture of a team
type LastEventInfo struct {
	ID        int64  `yaml:"id" json:"id"`
	StartTime int64  `yaml:"startTime" json:"startTime"`
	Slug      string `yaml:"slug,omitempty" json:"slug,omitempty"`
}

// LeagueTeam is a tracked team
type LeagueTeam struct {
	ID        int64          `yaml:"id" json:"id"`
	Name      string         `yaml:"name" json:"name"`
	LastEvent *LastEventInfo `yaml:"lastEvent,omitempty" json:"lastEvent,omitempty"`
}

// League is a tracked unique tournament season
type League struct {
	LeagueID int64        `yaml:"leagueId" json:"leagueId"`
	SeasonID int64        `yaml:"seasonId" json:"seasonId"`
	Country  string       `yaml:"country" json:"country"`
	Teams    []LeagueTeam `yaml:"teams" json:"teams"`
}

// LeagueFile is the YAML list of tracked leagues, keyed by league name
type LeagueFile struct {
	path    string
	mu      sync.Mutex
	Leagues map[string]*League `yaml:"leagues"`
}

// LoadLeagues reads the league file at path. A missing file is an empty list.
func LoadLeagues(path string) (*LeagueFile, error) {
	lf := &LeagueFile{path: path, Leagues: map[string]*League{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read leagues: %w", err)
	}
	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parse leagues: %w", err)
	}
	if lf.Leagues == nil {
		lf.Leagues = map[string]*League{}
	}
	return lf, nil
}

// Save writes the league file back to disk
func (lf *LeagueFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("encode leagues: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lf.path), 0755); err != nil {
		return fmt.Errorf("create leagues directory: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("write leagues: %w", err)
	}
	return nil
}

// Names lists the tracked leagues alphabetically
func (lf *LeagueFile) Names() []string {
	names := make([]string, 0, len(lf.Leagues))
	for n := range lf.Leagues {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Add fetches a league table and tracks its teams with their last fixture
func (lf *LeagueFile) Add(ctx context.Context, client *Client, leagueID, seasonID int64, overwrite bool, workers int) (string, error) {
	table, err := client.LeagueStandings(ctx, leagueID, seasonID)
	if err != nil {
		return "", err
	}
	if _, ok := lf.Leagues[table.Name]; ok && !overwrite {
		return table.Name, fmt.Errorf("%s: %w", table.Name, ErrLeagueExists)
	}

	league := &League{LeagueID: leagueID, SeasonID: seasonID, Country: table.Country}
	for _, row := range table.Rows {
		league.Teams = append(league.Teams, LeagueTeam{ID: row.Team.ID, Name: row.Team.Name})
	}
	if _, _, err := refreshTeams(ctx, client, league.Teams, workers); err != nil {
		return table.Name, err
	}
	lf.Leagues[table.Name] = league
	logger.Info("Added league", table.Name, table.Country, "teams:", len(league.Teams))
	return table.Name, nil
}

// AddFromPage tracks a league from the standings embedded in a provider web
// page, used when the standings endpoint is unavailable
func (lf *LeagueFile) AddFromPage(ctx context.Context, client *Client, pageURL, name, country string, leagueID, seasonID int64, overwrite bool, workers int) error {
	if _, ok := lf.Leagues[name]; ok && !overwrite {
		return fmt.Errorf("%s: %w", name, ErrLeagueExists)
	}
	page, err := client.Page(ctx, pageURL)
	if err != nil {
		return err
	}
	data, err := ParseNextData(page)
	if err != nil {
		return err
	}
	teams, err := TeamsFromNextData(data)
	if err != nil {
		return err
	}
	if _, _, err := refreshTeams(ctx, client, teams, workers); err != nil {
		return err
	}
	lf.Leagues[name] = &League{LeagueID: leagueID, SeasonID: seasonID, Country: country, Teams: teams}
	logger.Info("Added league from page", name, "teams:", len(teams))
	return nil
}

// maxNameDistance is how many typos Resolve tolerates
const maxNameDistance = 2

// Resolve maps a possibly abbreviated or misspelt league name to the name on
// file. An exact name always wins, otherwise the single closest name within
// maxNameDistance edits is used.
func (lf *LeagueFile) Resolve(name string) (string, error) {
	if _, ok := lf.Leagues[name]; ok {
		return name, nil
	}
	if len([]rune(odds.NormalizeTeamName(name))) < 3 {
		return "", fmt.Errorf("league %q: %w", name, ErrNotFound)
	}
	best, bestDist, tied := "", maxNameDistance+1, false
	for _, n := range lf.Names() {
		d := odds.NameDistance(name, n)
		switch {
		case d < bestDist:
			best, bestDist, tied = n, d, false
		case d == bestDist:
			tied = true
		}
	}
	if best == "" {
		return "", fmt.Errorf("league %q: %w", name, ErrNotFound)
	}
	if tied {
		return "", fmt.Errorf("league %q is ambiguous", name)
	}
	return best, nil
}

// Remove stops tracking a league, see Resolve for name matching
func (lf *LeagueFile) Remove(name string) error {
	resolved, err := lf.Resolve(name)
	if err != nil {
		return err
	}
	delete(lf.Leagues, resolved)
	logger.Info("Removed league", resolved)
	return nil
}

// RefreshLastEvents updates the last fixture of every tracked team with at
// most workers concurrent lookups. Teams whose lookup fails keep their
// previous fixture.
func (lf *LeagueFile) RefreshLastEvents(ctx context.Context, client *Client, workers int) (updated, failed int, err error) {
	for _, name := range lf.Names() {
		u, f, err := refreshTeams(ctx, client, lf.Leagues[name].Teams, workers)
		updated += u
		failed += f
		if err != nil {
			return updated, failed, err
		}
		logger.Info("Refreshed", name, "updated:", u, "failed:", f)
	}
	return updated, failed, nil
}

func refreshTeams(ctx context.Context, client *Client, teams []LeagueTeam, workers int) (updated, failed int, err error) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range teams {
		i := i
		g.Go(func() error {
			ev, ok, err := client.LastEvent(gctx, teams[i].ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil || !ok {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("Failed to update last event of", teams[i].Name, err)
				failed++
				return nil
			}
			teams[i].LastEvent = &LastEventInfo{ID: ev.ID, StartTime: ev.StartTimestamp, Slug: ev.Slug}
			updated++
			return nil
		})
	}
	err = g.Wait()
	return updated, failed, err
}
