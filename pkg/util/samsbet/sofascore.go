package samsbet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/transport"
	"golang.org/x/time/rate"
)

const (
	playerFields     = "totalShots,shotsOnTarget,appearances,matchesStarted,minutesPlayed"
	goalkeeperFields = "saves,savedShotsFromInsideTheBox,savedShotsFromOutsideTheBox,appearances,cleanSheet"
	goalkeeperLimit  = 10
)

// Team is a provider team reference
type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
	Slug      string `json:"slug,omitempty"`
}

// Score is one side of a provider scoreline
type Score struct {
	Current   int `json:"current"`
	Penalties int `json:"penalties"`
}

// Regular is the score without any penalty shoot-out
func (s Score) Regular() int {
	return s.Current - s.Penalties
}

// Event is a provider fixture
type Event struct {
	ID             int64  `json:"id"`
	CustomID       string `json:"customId"`
	Slug           string `json:"slug,omitempty"`
	StartTimestamp int64  `json:"startTimestamp"`
	Tournament     struct {
		ID               int64  `json:"id"`
		Name             string `json:"name"`
		UniqueTournament struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"uniqueTournament"`
	} `json:"tournament"`
	Season struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Year string `json:"year"`
	} `json:"season"`
	Status struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"status"`
	HomeTeam  Team  `json:"homeTeam"`
	AwayTeam  Team  `json:"awayTeam"`
	HomeScore Score `json:"homeScore"`
	AwayScore Score `json:"awayScore"`
}

// PlayerSeasonStats is one row of the season statistics endpoint. The
// shooting and goalkeeping queries fill different subsets of the fields.
type PlayerSeasonStats struct {
	Player struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"player"`
	Team                        Team    `json:"team"`
	TotalShots                  float64 `json:"totalShots"`
	ShotsOnTarget               float64 `json:"shotsOnTarget"`
	Appearances                 int     `json:"appearances"`
	MatchesStarted              float64 `json:"matchesStarted"`
	MinutesPlayed               float64 `json:"minutesPlayed"`
	Saves                       float64 `json:"saves"`
	SavedShotsFromInsideTheBox  float64 `json:"savedShotsFromInsideTheBox"`
	SavedShotsFromOutsideTheBox float64 `json:"savedShotsFromOutsideTheBox"`
	CleanSheet                  float64 `json:"cleanSheet"`
}

// TeamSeasonStats is the overall team statistics payload
type TeamSeasonStats struct {
	Matches               int      `json:"matches"`
	Shots                 float64  `json:"shots"`
	ShotsOnTarget         float64  `json:"shotsOnTarget"`
	ShotsFromInsideTheBox float64  `json:"shotsFromInsideTheBox"`
	BigChancesCreated     float64  `json:"bigChancesCreated"`
	GoalsScored           float64  `json:"goalsScored"`
	PenaltyGoals          float64  `json:"penaltyGoals"`
	GoalsConceded         *float64 `json:"goalsConceded"`
	BigChancesAgainst     float64  `json:"bigChancesAgainst"`
	ShotsAgainst          float64  `json:"shotsAgainst"`
	ShotsOnTargetAgainst  float64  `json:"shotsOnTargetAgainst"`
	Saves                 float64  `json:"saves"`
	Corners               float64  `json:"corners"`
	CornersAgainst        float64  `json:"cornersAgainst"`
	CleanSheets           float64  `json:"cleanSheets"`
}

// StandingRow is one line of a league table
type StandingRow struct {
	Team          Team `json:"team"`
	Position      int  `json:"position"`
	Matches       int  `json:"matches"`
	Wins          int  `json:"wins"`
	Draws         int  `json:"draws"`
	Losses        int  `json:"losses"`
	ScoresFor     int  `json:"scoresFor"`
	ScoresAgainst int  `json:"scoresAgainst"`
	Points        int  `json:"points"`
}

// StatisticsItem is one key of the event statistics payload
type StatisticsItem struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	HomeValue float64 `json:"homeValue"`
	AwayValue float64 `json:"awayValue"`
}

// StatisticsPeriod groups the event statistics of one period (1ST, 2ND, ALL)
type StatisticsPeriod struct {
	Period string `json:"period"`
	Groups []struct {
		GroupName       string           `json:"groupName"`
		StatisticsItems []StatisticsItem `json:"statisticsItems"`
	} `json:"groups"`
}

// LineupPlayer is one player of an event lineup with their match statistics
type LineupPlayer struct {
	Player struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"player"`
	Position   string         `json:"position"`
	Substitute bool           `json:"substitute"`
	Statistics map[string]any `json:"statistics"`
}

// Stat returns a numeric match statistic, 0 when absent or not a number
func (p LineupPlayer) Stat(key string) float64 {
	if v, ok := p.Statistics[key].(float64); ok {
		return v
	}
	return 0
}

// Lineups is the event lineups payload
type Lineups struct {
	Confirmed bool `json:"confirmed"`
	Home      struct {
		Players []LineupPlayer `json:"players"`
	} `json:"home"`
	Away struct {
		Players []LineupPlayer `json:"players"`
	} `json:"away"`
}

// Client talks to the provider REST API. All requests share one limiter so
// consecutive calls are spaced by the configured interval.
type Client struct {
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	playerLimit int
	headers     map[string]string
}

// NewClient builds a client from cfg
func NewClient(cfg *Config) *Client {
	return NewClientWith(cfg.APIBaseURL, transport.NewHTTPClient(cfg.HTTPTimeout, cfg.CABundle),
		cfg.RequestInterval, cfg.RequestBurst, cfg.PlayerLimit)
}

// NewClientWith builds a client around an existing *http.Client
func NewClientWith(baseURL string, hc *http.Client, interval time.Duration, burst, playerLimit int) *Client {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        hc,
		limiter:     rate.NewLimiter(limit, burst),
		playerLimit: playerLimit,
		headers: map[string]string{
			"Cache-Control": "no-cache",
			"Referer":       "https://www.sofascore.com/",
			"Origin":        "https://www.sofascore.com",
		},
	}
}

// get waits for the limiter, fetches endpoint and decodes the JSON body into v
func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	u := c.baseURL + "/" + endpoint
	logger.Debug("Fetching", u)

	data, err := transport.Fetch(ctx, c.http, u, c.headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}
	return nil
}

// isNotFound reports whether err is a 404 from the provider
func isNotFound(err error) bool {
	var httpErr *transport.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// ScheduledEvents lists the football fixtures of a calendar day
func (c *Client) ScheduledEvents(ctx context.Context, day time.Time) ([]Event, error) {
	var resp struct {
		Events []Event `json:"events"`
	}
	if err := c.get(ctx, "sport/football/scheduled-events/"+day.Format("2006-01-02"), &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// EventDetails fetches a single fixture
func (c *Client) EventDetails(ctx context.Context, eventID int64) (Event, error) {
	var resp struct {
		Event *Event `json:"event"`
	}
	if err := c.get(ctx, fmt.Sprintf("event/%d", eventID), &resp); err != nil {
		if isNotFound(err) {
			return Event{}, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}
		return Event{}, err
	}
	if resp.Event == nil {
		return Event{}, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return *resp.Event, nil
}

// PlayerStats fetches the season shooting figures of a team's players,
// ordered by total shots. matchType "home" or "away" restricts the figures
// to matches played at that venue.
func (c *Client) PlayerStats(ctx context.Context, uniqueTournamentID, seasonID, teamID int64, matchType string) ([]PlayerSeasonStats, error) {
	filters := []string{fmt.Sprintf("team.in.%d", teamID)}
	if matchType == SideHome || matchType == SideAway {
		filters = append([]string{"type.EQ." + matchType}, filters...)
	}
	q := url.Values{}
	q.Set("limit", fmt.Sprint(c.playerLimit))
	q.Set("order", "-totalShots")
	q.Set("accumulation", "total")
	q.Set("fields", playerFields)
	q.Set("filters", strings.Join(filters, ","))
	return c.seasonStatistics(ctx, uniqueTournamentID, seasonID, q)
}

// GoalkeeperStats fetches the season goalkeeping figures of a team's keepers
func (c *Client) GoalkeeperStats(ctx context.Context, uniqueTournamentID, seasonID, teamID int64) ([]PlayerSeasonStats, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(goalkeeperLimit))
	q.Set("order", "-rating")
	q.Set("accumulation", "total")
	q.Set("fields", goalkeeperFields)
	q.Set("filters", fmt.Sprintf("position.in.G,team.in.%d", teamID))
	return c.seasonStatistics(ctx, uniqueTournamentID, seasonID, q)
}

func (c *Client) seasonStatistics(ctx context.Context, uniqueTournamentID, seasonID int64, q url.Values) ([]PlayerSeasonStats, error) {
	var resp struct {
		Results []PlayerSeasonStats `json:"results"`
	}
	endpoint := fmt.Sprintf("unique-tournament/%d/season/%d/statistics?%s", uniqueTournamentID, seasonID, q.Encode())
	if err := c.get(ctx, endpoint, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Results, nil
}

// TeamStats fetches a team's overall season statistics
func (c *Client) TeamStats(ctx context.Context, teamID, uniqueTournamentID, seasonID int64) (TeamSeasonStats, error) {
	var resp struct {
		Statistics *TeamSeasonStats `json:"statistics"`
	}
	endpoint := fmt.Sprintf("team/%d/unique-tournament/%d/season/%d/statistics/overall", teamID, uniqueTournamentID, seasonID)
	if err := c.get(ctx, endpoint, &resp); err != nil {
		if isNotFound(err) {
			return TeamSeasonStats{}, fmt.Errorf("team %d: %w", teamID, ErrNoStats)
		}
		return TeamSeasonStats{}, err
	}
	if resp.Statistics == nil {
		return TeamSeasonStats{}, fmt.Errorf("team %d: %w", teamID, ErrNoStats)
	}
	return *resp.Statistics, nil
}

// Standings fetches the total table of a tournament season
func (c *Client) Standings(ctx context.Context, tournamentID, seasonID int64) ([]StandingRow, error) {
	var resp struct {
		Standings []struct {
			Rows []StandingRow `json:"rows"`
		} `json:"standings"`
	}
	if err := c.get(ctx, fmt.Sprintf("tournament/%d/season/%d/standings/total", tournamentID, seasonID), &resp); err != nil {
		return nil, err
	}
	if len(resp.Standings) == 0 {
		return nil, nil
	}
	return resp.Standings[0].Rows, nil
}

// LeagueTable is a unique tournament table with its naming metadata
type LeagueTable struct {
	Name    string
	Country string
	Rows    []StandingRow
}

// LeagueStandings fetches the total table of a unique tournament season,
// all groups flattened
func (c *Client) LeagueStandings(ctx context.Context, uniqueTournamentID, seasonID int64) (LeagueTable, error) {
	var resp struct {
		Standings []struct {
			Tournament struct {
				UniqueTournament struct {
					Name     string `json:"name"`
					Category struct {
						Name string `json:"name"`
					} `json:"category"`
				} `json:"uniqueTournament"`
			} `json:"tournament"`
			Rows []StandingRow `json:"rows"`
		} `json:"standings"`
	}
	endpoint := fmt.Sprintf("unique-tournament/%d/season/%d/standings/total", uniqueTournamentID, seasonID)
	if err := c.get(ctx, endpoint, &resp); err != nil {
		if isNotFound(err) {
			return LeagueTable{}, fmt.Errorf("league %d season %d: %w", uniqueTournamentID, seasonID, ErrNotFound)
		}
		return LeagueTable{}, err
	}
	if len(resp.Standings) == 0 {
		return LeagueTable{}, fmt.Errorf("league %d season %d has no standings: %w", uniqueTournamentID, seasonID, ErrNotFound)
	}
	ut := resp.Standings[0].Tournament.UniqueTournament
	table := LeagueTable{Name: ut.Name, Country: ut.Category.Name}
	for _, st := range resp.Standings {
		table.Rows = append(table.Rows, st.Rows...)
	}
	return table, nil
}

// LastEvent returns the most recent finished fixture of a team
func (c *Client) LastEvent(ctx context.Context, teamID int64) (Event, bool, error) {
	var resp struct {
		Events []Event `json:"events"`
	}
	if err := c.get(ctx, fmt.Sprintf("team/%d/events/last/0", teamID), &resp); err != nil {
		if isNotFound(err) {
			return Event{}, false, nil
		}
		return Event{}, false, err
	}
	if len(resp.Events) == 0 {
		return Event{}, false, nil
	}
	return resp.Events[len(resp.Events)-1], true, nil
}

// EventStatistics fetches the per period statistics of a fixture. A fixture
// without statistics yields no periods and no error.
func (c *Client) EventStatistics(ctx context.Context, eventID int64) ([]StatisticsPeriod, error) {
	var resp struct {
		Statistics []StatisticsPeriod `json:"statistics"`
	}
	if err := c.get(ctx, fmt.Sprintf("event/%d/statistics", eventID), &resp); err != nil {
		if isNotFound(err) {
			logger.Warn("No statistics for event", eventID)
			return nil, nil
		}
		return nil, err
	}
	return resp.Statistics, nil
}

// EventLineups fetches the lineups of a fixture with player match statistics
func (c *Client) EventLineups(ctx context.Context, eventID int64) (Lineups, error) {
	var resp Lineups
	if err := c.get(ctx, fmt.Sprintf("event/%d/lineups", eventID), &resp); err != nil {
		if isNotFound(err) {
			logger.Warn("No lineups for event", eventID)
			return Lineups{}, nil
		}
		return Lineups{}, err
	}
	return resp, nil
}

// H2HEvents fetches the head-to-head history attached to a fixture's custom
// id. The first event is the fixture itself.
func (c *Client) H2HEvents(ctx context.Context, customID string) ([]Event, error) {
	var resp struct {
		Events []Event `json:"events"`
	}
	if err := c.get(ctx, "event/"+url.PathEscape(customID)+"/h2h/events", &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Events, nil
}

// Page fetches a provider web page, used for the __NEXT_DATA__ fallback
func (c *Client) Page(ctx context.Context, pageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return transport.Fetch(ctx, c.http, pageURL, c.headers)
}
