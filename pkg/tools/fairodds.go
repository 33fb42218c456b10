package tools

import (
	"context"
	"fmt"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
)

// FairOddsTool returns the fair_odds tool definition
func FairOddsTool() protocol.Tool {
	return protocol.Tool{
		Name: "fair_odds",
		Description: `Prices over/under lines for a Poisson distributed count such as goals, shots on target or saves.
		Half lines (2.5), whole lines (2.0, stake returned on exactly 2) and quarter lines (2.25, 2.75) are supported.
		Returns the probability and fair decimal odd of each side. Odds of zero probability outcomes are "∞".`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"lambda": {
					Type:        "number",
					Description: "Expected count per match, the Poisson mean. Must be zero or positive.",
				},
				"lines": numberArray("Lines to price, positive multiples of 0.25. If omitted, half lines around lambda are generated."),
				"spread": {
					Type:        "integer",
					Description: "Lines either side of lambda when generating lines",
				},
			},
			Required: []string{"lambda"},
		},
	}
}

type fairOddsArgs struct {
	Lambda float64   `json:"lambda"`
	Lines  []float64 `json:"lines"`
	Spread *int      `json:"spread"`
}

// FairOddsResult is the fair_odds output
type FairOddsResult struct {
	Lambda float64          `json:"lambda"`
	Odds   []odds.OddsEntry `json:"odds"`
}

// HandleFairOdds prices the requested lines
func (tb *Toolbox) HandleFairOdds(ctx context.Context, params any) (any, error) {
	var args fairOddsArgs
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	lines := args.Lines
	if len(lines) == 0 {
		lines = odds.GenerateLines(args.Lambda, tb.spread(args.Spread))
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no lines to price for lambda %v", odds.ErrInvalidInput, args.Lambda)
	}
	table, err := odds.OddsTable(args.Lambda, lines)
	if err != nil {
		return nil, err
	}
	logger.Info("Priced", len(table), "lines for lambda", args.Lambda)
	return FairOddsResult{Lambda: args.Lambda, Odds: table}, nil
}

func (tb *Toolbox) spread(s *int) int {
	if s != nil && *s >= 0 {
		return *s
	}
	return tb.cfg.LineSpread
}

// GenerateLinesTool returns the generate_lines tool definition
func GenerateLinesTool() protocol.Tool {
	return protocol.Tool{
		Name:        "generate_lines",
		Description: "Generates the half lines worth pricing around an expected value, e.g. 1.5, 2.5 and 3.5 around 2.7",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"expected": {
					Type:        "number",
					Description: "Expected count per match",
				},
				"spread": {
					Type:        "integer",
					Description: "Lines either side of the central line",
				},
				"with_odds": {
					Type:        "boolean",
					Description: "Also price each line using expected as the Poisson mean",
				},
			},
			Required: []string{"expected"},
		},
	}
}

type generateLinesArgs struct {
	Expected float64 `json:"expected"`
	Spread   *int    `json:"spread"`
	WithOdds bool    `json:"with_odds"`
}

// GenerateLinesResult is the generate_lines output
type GenerateLinesResult struct {
	Expected float64          `json:"expected"`
	Lines    []float64        `json:"lines"`
	Odds     []odds.OddsEntry `json:"odds,omitempty"`
}

// HandleGenerateLines returns the lines around the expected value. A
// non-positive expected value yields no lines.
func (tb *Toolbox) HandleGenerateLines(ctx context.Context, params any) (any, error) {
	var args generateLinesArgs
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	res := GenerateLinesResult{Expected: args.Expected, Lines: odds.GenerateLines(args.Expected, tb.spread(args.Spread))}
	if args.WithOdds && len(res.Lines) > 0 {
		table, err := odds.OddsTable(args.Expected, res.Lines)
		if err != nil {
			return nil, err
		}
		res.Odds = table
	}
	return res, nil
}
