package odds

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// EntityAnalysis is the market view of one entity on one counter. Interval
// and Odds are nil when the sample is too small.
type EntityAnalysis struct {
	EntityName    string              `json:"entityName"`
	TeamName      string              `json:"teamName,omitempty"`
	MatchesPlayed int                 `json:"matchesPlayed"`
	Counter       string              `json:"counter"`
	Total         float64             `json:"total"`
	Rate          Optional            `json:"rate"`
	Interval      *ConfidenceInterval `json:"interval,omitempty"`
	Consistency   Consistency         `json:"consistency"`
	Odds          []OddsEntry         `json:"odds,omitempty"`
}

// Applicable reports whether the entity passed the minimum-sample gate
func (a EntityAnalysis) Applicable() bool {
	return a.Odds != nil
}

// AnalyzeEntity builds the market view of counter for row. A nil lines slice
// generates lines around the rate.
func AnalyzeEntity(row RateRow, counter string, lines []float64, spread int) (EntityAnalysis, error) {
	rate := row.Rate(counter)
	a := EntityAnalysis{
		EntityName:    row.EntityName,
		TeamName:      row.TeamName,
		MatchesPlayed: row.MatchesPlayed,
		Counter:       counter,
		Total:         row.Counter(counter),
		Rate:          rate,
		Consistency:   Low,
	}
	v, ok := rate.Get()
	if !ok {
		return a, nil
	}
	if ci, ok := ConfidenceIntervalFor(v, row.MatchesPlayed); ok {
		a.Interval = &ci
	}
	a.Consistency = ClassifyRate(v, row.MatchesPlayed)

	if lines == nil {
		lines = GenerateLines(v, spread)
	}
	table, ok, err := OddsForRow(row, counter, lines)
	if err != nil {
		return a, err
	}
	if ok {
		a.Odds = table
	}
	return a, nil
}

// AnalyzeBatch runs AnalyzeEntity over every row with at most limit
// concurrent workers. Results keep the input order.
func AnalyzeBatch(ctx context.Context, rows []RateRow, counter string, lines []float64, spread, limit int) ([]EntityAnalysis, error) {
	out := make([]EntityAnalysis, len(rows))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range rows {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := AnalyzeEntity(rows[i], counter, lines, spread)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SortByRate orders analyses by descending rate, undefined rates last
func SortByRate(as []EntityAnalysis) {
	sort.SliceStable(as, func(i, j int) bool {
		vi, oki := as[i].Rate.Get()
		vj, okj := as[j].Rate.Get()
		if oki != okj {
			return oki
		}
		return vi > vj
	})
}
