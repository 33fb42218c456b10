package tools

import (
	"context"
	"fmt"

	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
)

// H2HAnalysisTool returns the h2h_analysis tool definition
func H2HAnalysisTool() protocol.Tool {
	return protocol.Tool{
		Name: "h2h_analysis",
		Description: `Builds a head to head report between two teams from past meetings.
		Each match is {"homeTeam","awayTeam","homeGoals","awayGoals","home":{"total_shots":12,...},"away":{...},"missingStats":false}.
		The report has the win/draw record, goals per match, empirical goal line frequencies, both teams to score,
		and per counter series seen from each team with consistency labels and Poisson odds.
		Either event_id (fetched from the provider) or matches must be given.`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"team_a": {Type: "string", Description: "First team, usually the home side of the upcoming fixture"},
				"team_b": {Type: "string", Description: "Second team"},
				"matches": {
					Type:        "array",
					Description: "Past meetings between the two teams",
					Items:       &protocol.ToolProperty{Type: "object"},
				},
				"event_id": {Type: "integer", Description: "Provider id of the upcoming fixture, used instead of matches"},
				"with_stats": {
					Type:        "boolean",
					Description: "With event_id, also fetch the statistics of every meeting (default true)",
				},
				"counters": {
					Type:        "array",
					Description: "Counters to build series for (default: total_shots, shots_on_target, saves, corners_for)",
					Items:       &protocol.ToolProperty{Type: "string"},
				},
				"goal_lines": numberArray("Goal lines for the empirical frequencies (default 0.5 to 7.5)"),
			},
			Required: []string{},
		},
	}
}

type h2hArgs struct {
	TeamA     string                `json:"team_a"`
	TeamB     string                `json:"team_b"`
	Matches   []odds.H2HMatchRecord `json:"matches"`
	EventID   int64                 `json:"event_id"`
	WithStats *bool                 `json:"with_stats"`
	Counters  []string              `json:"counters"`
	GoalLines []float64             `json:"goal_lines"`
}

// HandleH2HAnalysis builds the report from the given matches, or from the
// provider when an event id is given
func (tb *Toolbox) HandleH2HAnalysis(ctx context.Context, params any) (any, error) {
	var args h2hArgs
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	opts := tb.cfg.H2HOptions()
	if len(args.Counters) > 0 {
		opts.Counters = args.Counters
	}
	if len(args.GoalLines) > 0 {
		opts.GoalLines = args.GoalLines
	}

	if args.EventID > 0 {
		if err := tb.requireService(); err != nil {
			return nil, err
		}
		withStats := args.WithStats == nil || *args.WithStats
		return tb.service.H2HReport(ctx, args.EventID, withStats, opts)
	}

	if args.TeamA == "" || args.TeamB == "" {
		return nil, fmt.Errorf("%w: team_a and team_b are required", odds.ErrInvalidInput)
	}
	report, err := odds.BuildH2HReport(args.Matches, args.TeamA, args.TeamB, opts)
	if err != nil {
		return nil, err
	}
	return report, nil
}
