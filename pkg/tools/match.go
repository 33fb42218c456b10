package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
)

// MatchAnalysisTool returns the match_analysis tool definition
func MatchAnalysisTool() protocol.Tool {
	return protocol.Tool{
		Name: "match_analysis",
		Description: `Full pre-match analysis of a fixture using provider season statistics:
		players shots on target with fair odds, goalkeeper saves, team summaries and the head to head report.
		Set save to keep the inputs so the run can be re-analysed later with stored_run.`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"event_id":        {Type: "integer", Description: "Provider event id of the fixture"},
				"filter_by_venue": {Type: "boolean", Description: "Use home games for the home side and away games for the away side"},
				"with_h2h":        {Type: "boolean", Description: "Include the head to head report (default true)"},
				"h2h_stats":       {Type: "boolean", Description: "Fetch the statistics of each meeting (default true)"},
				"save":            {Type: "boolean", Description: "Persist the inputs of this run"},
			},
			Required: []string{"event_id"},
		},
	}
}

type matchArgs struct {
	EventID       int64 `json:"event_id"`
	FilterByVenue bool  `json:"filter_by_venue"`
	WithH2H       *bool `json:"with_h2h"`
	H2HStats      *bool `json:"h2h_stats"`
	Save          bool  `json:"save"`
}

// HandleMatchAnalysis runs a live analysis of the fixture
func (tb *Toolbox) HandleMatchAnalysis(ctx context.Context, params any) (any, error) {
	if err := tb.requireService(); err != nil {
		return nil, err
	}
	var args matchArgs
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	if args.EventID <= 0 {
		return nil, fmt.Errorf("event_id must be a positive provider id")
	}
	opts := samsbet.DefaultMatchOptions()
	opts.FilterByVenue = args.FilterByVenue
	opts.Save = args.Save
	if args.WithH2H != nil {
		opts.WithH2H = *args.WithH2H
	}
	if args.H2HStats != nil {
		opts.H2HStats = *args.H2HStats
	}
	logger.Info("Analysing event", args.EventID)
	return tb.service.MatchAnalysis(ctx, args.EventID, opts)
}

// StoredRunTool returns the stored_run tool definition
func StoredRunTool() protocol.Tool {
	return protocol.Tool{
		Name:        "stored_run",
		Description: "Re-analyses a saved match_analysis run offline with the current settings. Without run_id, lists the saved runs. With delete, removes the run instead.",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"run_id": {Type: "string", Description: "Id of a saved run"},
				"delete": {Type: "boolean", Description: "Delete the run and its snapshots (default false)"},
			},
			Required: []string{},
		},
	}
}

// HandleStoredRun re-runs or lists persisted runs
func (tb *Toolbox) HandleStoredRun(ctx context.Context, params any) (any, error) {
	if err := tb.requireService(); err != nil {
		return nil, err
	}
	var args struct {
		RunID  string `json:"run_id"`
		Delete bool   `json:"delete"`
	}
	if params != nil {
		if err := decodeArgs(params, &args); err != nil {
			return nil, err
		}
	}
	if args.RunID == "" {
		runs, err := tb.service.Runs(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"runs": runs}, nil
	}
	if args.Delete {
		removed, err := tb.service.DeleteRun(ctx, args.RunID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"deleted": args.RunID, "snapshots": removed}, nil
	}
	return tb.service.Rerun(ctx, args.RunID)
}

// ScheduledEventsTool returns the scheduled_events tool definition
func ScheduledEventsTool() protocol.Tool {
	return protocol.Tool{
		Name:        "scheduled_events",
		Description: "Lists the football fixtures of a day with their provider event ids, for use with match_analysis",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"date":       {Type: "string", Description: "Day as YYYY-MM-DD (default today)"},
				"tournament": {Type: "string", Description: "Only fixtures whose tournament name contains this text"},
			},
			Required: []string{},
		},
	}
}

// FixtureSummary is one line of the scheduled_events output
type FixtureSummary struct {
	EventID    int64  `json:"eventId"`
	StartTime  int64  `json:"startTime"`
	Tournament string `json:"tournament"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
}

// HandleScheduledEvents lists the fixtures of a day
func (tb *Toolbox) HandleScheduledEvents(ctx context.Context, params any) (any, error) {
	if tb.client == nil {
		return nil, fmt.Errorf("the provider client is not configured")
	}
	var args struct {
		Date       string `json:"date"`
		Tournament string `json:"tournament"`
	}
	if params != nil {
		if err := decodeArgs(params, &args); err != nil {
			return nil, err
		}
	}
	day := time.Now()
	if args.Date != "" {
		var err error
		if day, err = time.Parse("2006-01-02", args.Date); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", args.Date, err)
		}
	}
	events, err := tb.client.ScheduledEvents(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make([]FixtureSummary, 0, len(events))
	for _, ev := range events {
		if args.Tournament != "" && !containsFold(ev.Tournament.Name, args.Tournament) {
			continue
		}
		out = append(out, FixtureSummary{
			EventID:    ev.ID,
			StartTime:  ev.StartTimestamp,
			Tournament: ev.Tournament.Name,
			HomeTeam:   ev.HomeTeam.Name,
			AwayTeam:   ev.AwayTeam.Name,
		})
	}
	return map[string]any{"date": day.Format("2006-01-02"), "events": out}, nil
}

// LeaguesTool returns the leagues tool definition
func LeaguesTool() protocol.Tool {
	return protocol.Tool{
		Name:        "leagues",
		Description: "Lists the tracked leagues with each team's last fixture, or refreshes those fixtures from the provider",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"action": {Type: "string", Description: "What to do", Enum: []string{"list", "refresh"}},
			},
			Required: []string{"action"},
		},
	}
}

// HandleLeagues lists or refreshes the league file
func (tb *Toolbox) HandleLeagues(ctx context.Context, params any) (any, error) {
	var args struct {
		Action string `json:"action"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	lf, err := samsbet.LoadLeagues(tb.cfg.LeaguesFile)
	if err != nil {
		return nil, err
	}
	switch args.Action {
	case "list":
		return map[string]any{"leagues": lf.Leagues}, nil
	case "refresh":
		if tb.client == nil {
			return nil, fmt.Errorf("the provider client is not configured")
		}
		updated, failed, err := lf.RefreshLastEvents(ctx, tb.client, tb.cfg.Workers)
		if err != nil {
			return nil, err
		}
		if err := lf.Save(); err != nil {
			return nil, err
		}
		return map[string]any{"updated": updated, "failed": failed}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", args.Action)
	}
}
