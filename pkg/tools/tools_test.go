package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolbox(t *testing.T, client *samsbet.Client) *Toolbox {
	t.Helper()
	cfg := samsbet.DefaultConfig()
	cfg.LeaguesFile = filepath.Join(t.TempDir(), "leagues.yaml")
	return NewToolbox(cfg, nil, client)
}

func TestFairOdds(t *testing.T) {
	tb := newToolbox(t, nil)
	ctx := context.Background()

	t.Run("explicit lines", func(t *testing.T) {
		out, err := tb.HandleFairOdds(ctx, map[string]any{"lambda": 2.0, "lines": []any{2.5, 2.25}})
		require.NoError(t, err)
		res := out.(FairOddsResult)
		require.Len(t, res.Odds, 2)
		assert.InDelta(t, 0.3233, res.Odds[0].ProbOver, 1e-4)
		assert.Equal(t, odds.QuarterLowLine, res.Odds[1].Kind)
	})

	t.Run("generated lines", func(t *testing.T) {
		out, err := tb.HandleFairOdds(ctx, json.RawMessage(`{"lambda":2.7,"spread":1}`))
		require.NoError(t, err)
		res := out.(FairOddsResult)
		require.Len(t, res.Odds, 3)
		assert.Equal(t, 1.5, res.Odds[0].Line)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := tb.HandleFairOdds(ctx, map[string]any{"lambda": 1.0, "lines": []any{1.1}})
		assert.ErrorIs(t, err, odds.ErrInvalidInput)
		_, err = tb.HandleFairOdds(ctx, map[string]any{"lambda": 0.0})
		assert.ErrorIs(t, err, odds.ErrInvalidInput)
		_, err = tb.HandleFairOdds(ctx, nil)
		assert.Error(t, err)
		_, err = tb.HandleFairOdds(ctx, map[string]any{"lambda": "two"})
		assert.Error(t, err)
	})
}

func TestGenerateLines(t *testing.T) {
	tb := newToolbox(t, nil)
	out, err := tb.HandleGenerateLines(context.Background(), map[string]any{"expected": 2.7, "spread": 1, "with_odds": true})
	require.NoError(t, err)
	res := out.(GenerateLinesResult)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, res.Lines)
	assert.Len(t, res.Odds, 3)

	out, err = tb.HandleGenerateLines(context.Background(), map[string]any{"expected": 0})
	require.NoError(t, err)
	assert.Empty(t, out.(GenerateLinesResult).Lines)
}

func TestEntityOdds(t *testing.T) {
	tb := newToolbox(t, nil)
	records := []any{
		map[string]any{"entityName": "A", "teamName": "X", "matchesPlayed": 10, "counters": map[string]any{"shots_on_target": 14}},
		map[string]any{"entityName": "B", "teamName": "X", "matchesPlayed": 3, "counters": map[string]any{"shots_on_target": 5}},
		map[string]any{"entityName": "C", "teamName": "Y", "matchesPlayed": 6, "counters": map[string]any{"shots_on_target": 3}},
	}

	out, err := tb.HandleEntityOdds(context.Background(), map[string]any{
		"records": records, "counter": odds.ShotsOnTarget, "lines": []any{0.5}, "aggregate": true, "sort": true,
	})
	require.NoError(t, err)
	res := out.(EntityOddsResult)
	require.Len(t, res.Entities, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{res.Entities[0].EntityName, res.Entities[1].EntityName, res.Entities[2].EntityName})
	assert.False(t, res.Entities[0].Applicable(), "three matches are below the sample gate")
	assert.Equal(t, odds.Some(1.4), res.Entities[1].Rate)
	require.Len(t, res.Entities[1].Odds, 1)

	require.Len(t, res.Teams, 2)
	assert.Equal(t, "X", res.Teams[0].EntityName)
	assert.Equal(t, odds.Some(1.9), res.Teams[0].Rate)

	records[0].(map[string]any)["counters"] = map[string]any{"shots_on_target": -1}
	_, err = tb.HandleEntityOdds(context.Background(), map[string]any{"records": records, "counter": odds.ShotsOnTarget})
	assert.ErrorIs(t, err, odds.ErrInvalidInput)

	_, err = tb.HandleEntityOdds(context.Background(), map[string]any{"records": records})
	assert.ErrorIs(t, err, odds.ErrInvalidInput)
}

func TestH2HAnalysis(t *testing.T) {
	tb := newToolbox(t, nil)
	matches := []any{
		map[string]any{"homeTeam": "Bahia", "awayTeam": "Vitória", "homeGoals": 2, "awayGoals": 1,
			"home": map[string]any{"total_shots": 12}, "away": map[string]any{"total_shots": 8}},
		map[string]any{"homeTeam": "Vitoria", "awayTeam": "Bahia", "homeGoals": 0, "awayGoals": 0, "missingStats": true},
		map[string]any{"homeTeam": "Sport", "awayTeam": "Bahia", "homeGoals": 5, "awayGoals": 0},
	}
	out, err := tb.HandleH2HAnalysis(context.Background(), map[string]any{"team_a": "Bahia", "team_b": "Vitória", "matches": matches})
	require.NoError(t, err)
	rep := out.(odds.H2HReport)
	assert.Equal(t, 2, rep.Record.Matches)
	assert.Equal(t, 1, rep.Record.WinsA)
	assert.Equal(t, 1, rep.Record.Draws)
	assert.Equal(t, odds.Some(1.5), rep.AverageGoals)
	assert.Equal(t, 1, rep.StatMatches)
	assert.Equal(t, []float64{12}, rep.Stats[odds.TotalShots].Series.SeriesA)

	_, err = tb.HandleH2HAnalysis(context.Background(), map[string]any{"matches": matches})
	assert.ErrorIs(t, err, odds.ErrInvalidInput)

	_, err = tb.HandleH2HAnalysis(context.Background(), map[string]any{"event_id": 5})
	assert.Error(t, err, "provider lookups need a service")
}

func TestH2HAnalysisFromProviderHonoursOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/event/5":
			w.Write([]byte(`{"event":{"id":5,"customId":"xyz","homeTeam":{"id":1,"name":"Bahia"},"awayTeam":{"id":2,"name":"Vitória"}}}`))
		case "/event/xyz/h2h/events":
			w.Write([]byte(`{"events":[{"id":5},
				{"id":4,"startTimestamp":10,"homeTeam":{"name":"Bahia"},"awayTeam":{"name":"Vitória"},"homeScore":{"current":2},"awayScore":{"current":0}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client := samsbet.NewClientWith(srv.URL, srv.Client(), 0, 1, 30)
	cfg := samsbet.DefaultConfig()
	tb := NewToolbox(cfg, samsbet.NewService(cfg, client, nil), client)

	out, err := tb.HandleH2HAnalysis(context.Background(), map[string]any{
		"event_id": 5, "with_stats": false, "counters": []any{odds.CornersFor},
	})
	require.NoError(t, err)
	rep := out.(*odds.H2HReport)
	assert.Equal(t, 1, rep.Record.WinsA)
	require.Len(t, rep.Stats, 1)
	assert.Contains(t, rep.Stats, odds.CornersFor)
}

func TestProviderToolsWithoutService(t *testing.T) {
	tb := newToolbox(t, nil)
	_, err := tb.HandleMatchAnalysis(context.Background(), map[string]any{"event_id": 1})
	assert.Error(t, err)
	_, err = tb.HandleStoredRun(context.Background(), map[string]any{})
	assert.Error(t, err)
	_, err = tb.HandleScheduledEvents(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestStoredRunDelete(t *testing.T) {
	ctx := context.Background()
	store, err := samsbet.OpenStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()
	cfg := samsbet.DefaultConfig()
	svc := samsbet.NewService(cfg, nil, store)
	require.NoError(t, svc.SaveInputs(ctx, &samsbet.MatchInputs{
		Run: samsbet.AnalysisRun{EventID: 9, HomeTeam: "Bahia", AwayTeam: "Vitória"},
	}))
	runs, err := svc.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	tb := NewToolbox(cfg, svc, nil)
	out, err := tb.HandleStoredRun(ctx, map[string]any{"run_id": runs[0].ID, "delete": true})
	require.NoError(t, err)
	assert.Equal(t, runs[0].ID, out.(map[string]any)["deleted"])

	_, err = tb.HandleStoredRun(ctx, map[string]any{"run_id": runs[0].ID, "delete": true})
	assert.ErrorIs(t, err, samsbet.ErrNotFound)

	out, err = tb.HandleStoredRun(ctx, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, out.(map[string]any)["runs"])
}

func TestScheduledEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sport/football/scheduled-events/2024-05-01" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"events":[
			{"id":1,"startTimestamp":5,"tournament":{"name":"Brasileirão Série A"},"homeTeam":{"name":"Bahia"},"awayTeam":{"name":"Vitória"}},
			{"id":2,"startTimestamp":6,"tournament":{"name":"Premier League"},"homeTeam":{"name":"Fulham"},"awayTeam":{"name":"Brentford"}}]}`))
	}))
	defer srv.Close()
	tb := newToolbox(t, samsbet.NewClientWith(srv.URL, srv.Client(), 0, 1, 30))

	out, err := tb.HandleScheduledEvents(context.Background(), map[string]any{"date": "2024-05-01", "tournament": "brasileirao"})
	require.NoError(t, err)
	events := out.(map[string]any)["events"].([]FixtureSummary)
	require.Len(t, events, 1)
	assert.Equal(t, FixtureSummary{EventID: 1, StartTime: 5, Tournament: "Brasileirão Série A", HomeTeam: "Bahia", AwayTeam: "Vitória"}, events[0])

	_, err = tb.HandleScheduledEvents(context.Background(), map[string]any{"date": "01/05/2024"})
	assert.Error(t, err)
}

func TestLeaguesList(t *testing.T) {
	tb := newToolbox(t, nil)
	out, err := tb.HandleLeagues(context.Background(), map[string]any{"action": "list"})
	require.NoError(t, err)
	assert.Empty(t, out.(map[string]any)["leagues"])

	_, err = tb.HandleLeagues(context.Background(), map[string]any{"action": "refresh"})
	assert.Error(t, err)
	_, err = tb.HandleLeagues(context.Background(), map[string]any{"action": "drop"})
	assert.Error(t, err)
}

func TestEntriesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range newToolbox(t, nil).Entries() {
		assert.False(t, seen[e.Tool.Name], e.Tool.Name)
		seen[e.Tool.Name] = true
		assert.Equal(t, "object", e.Tool.InputSchema.Type)
		assert.NotNil(t, e.Handler)
	}
	assert.Len(t, seen, 8)
}
