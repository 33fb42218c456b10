package tools

import (
	"context"
	"fmt"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
)

// EntityOddsTool returns the entity_odds tool definition
func EntityOddsTool() protocol.Tool {
	return protocol.Tool{
		Name: "entity_odds",
		Description: `Analyses one counter for a batch of players or teams given their season totals.
		Each record is {"entityName","teamName","matchesPlayed","counters":{"shots_on_target":14,...}}.
		Returns the per match rate, 95% confidence interval, consistency and fair odds of each entity.
		Entities with fewer than 5 matches get no odds.`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"records": {
					Type:        "array",
					Description: "Stat records with cumulative counters",
					Items:       &protocol.ToolProperty{Type: "object"},
				},
				"counter": {
					Type:        "string",
					Description: "Counter to analyse, see the counters resource",
				},
				"lines":  numberArray("Lines to price for every entity. If omitted, lines are generated around each rate."),
				"spread": {Type: "integer", Description: "Lines either side of the rate when generating lines"},
				"aggregate": {
					Type:        "boolean",
					Description: "Also analyse the sum of each team's records as a squad entry",
				},
				"sort": {
					Type:        "boolean",
					Description: "Order the result by rate, highest first",
				},
			},
			Required: []string{"records", "counter"},
		},
	}
}

type entityOddsArgs struct {
	Records   []odds.StatRecord `json:"records"`
	Counter   string            `json:"counter"`
	Lines     []float64         `json:"lines"`
	Spread    *int              `json:"spread"`
	Aggregate bool              `json:"aggregate"`
	Sort      bool              `json:"sort"`
}

// EntityOddsResult is the entity_odds output
type EntityOddsResult struct {
	Counter  string                `json:"counter"`
	Entities []odds.EntityAnalysis `json:"entities"`
	Teams    []odds.EntityAnalysis `json:"teams,omitempty"`
}

// HandleEntityOdds analyses every record concurrently, keeping input order
// unless sorting was asked for
func (tb *Toolbox) HandleEntityOdds(ctx context.Context, params any) (any, error) {
	var args entityOddsArgs
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	if args.Counter == "" {
		return nil, fmt.Errorf("%w: counter is required", odds.ErrInvalidInput)
	}
	for _, r := range args.Records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	spread := tb.spread(args.Spread)
	rows := odds.NewRateRows(args.Records)

	res := EntityOddsResult{Counter: args.Counter}
	var err error
	if res.Entities, err = odds.AnalyzeBatch(ctx, rows, args.Counter, args.Lines, spread, tb.cfg.Workers); err != nil {
		return nil, err
	}
	if args.Aggregate {
		if res.Teams, err = odds.AnalyzeBatch(ctx, odds.GroupByTeam(rows), args.Counter, args.Lines, spread, tb.cfg.Workers); err != nil {
			return nil, err
		}
	}
	if args.Sort {
		odds.SortByRate(res.Entities)
		odds.SortByRate(res.Teams)
	}
	logger.Info("Analysed", len(res.Entities), "entities on", args.Counter)
	return res, nil
}
