package odds

// H2HRecord is the results table of a head-to-head history from the point of
// view of the two teams
type H2HRecord struct {
	Matches   int `json:"matches"`
	WinsA     int `json:"winsA"`
	WinsAHome int `json:"winsAHome"`
	WinsAAway int `json:"winsAAway"`
	WinsB     int `json:"winsB"`
	WinsBHome int `json:"winsBHome"`
	WinsBAway int `json:"winsBAway"`
	Draws     int `json:"draws"`
}

// CounterSeries is the head-to-head analysis of one counter
type CounterSeries struct {
	Series       H2HSeries   `json:"series"`
	MatchTotals  []float64   `json:"matchTotals"`
	AverageA     Optional    `json:"averageA"`
	AverageB     Optional    `json:"averageB"`
	AverageTotal Optional    `json:"averageTotal"`
	VariationA   Consistency `json:"variationA,omitempty"`
	CVA          Optional    `json:"cvA"`
	VariationB   Consistency `json:"variationB,omitempty"`
	CVB          Optional    `json:"cvB"`
	OddsA        []OddsEntry `json:"oddsA,omitempty"`
	OddsB        []OddsEntry `json:"oddsB,omitempty"`
	OddsTotal    []OddsEntry `json:"oddsTotal,omitempty"`
}

// H2HReport summarises the meetings between two teams
type H2HReport struct {
	TeamA        string                   `json:"teamA"`
	TeamB        string                   `json:"teamB"`
	Record       H2HRecord                `json:"record"`
	Goals        H2HSeries                `json:"goals"`
	AverageGoals Optional                 `json:"averageGoals"`
	Goalless     Optional                 `json:"goalless"`
	GoallessOdd  *Odd                     `json:"goallessOdd,omitempty"`
	GoalLines    []GoalLineFrequency      `json:"goalLines,omitempty"`
	BTTS         *BTTS                    `json:"btts,omitempty"`
	Stats        map[string]CounterSeries `json:"stats"`
	StatMatches  int                      `json:"statMatches"`
}

// H2HOptions tunes BuildH2HReport
type H2HOptions struct {
	Counters   []string
	GoalLines  []float64
	Spread     int
	Thresholds VariationThresholds
}

// DefaultH2HOptions covers the counters tracked per match
func DefaultH2HOptions() H2HOptions {
	return H2HOptions{
		Counters:   []string{TotalShots, ShotsOnTarget, Saves, CornersFor},
		GoalLines:  HalfLines(7.5),
		Spread:     2,
		Thresholds: DefaultVariationThresholds,
	}
}

// BuildH2HRecord counts wins and draws from teamA's and teamB's viewpoint
func BuildH2HRecord(matches []H2HMatchRecord, teamA, teamB string) H2HRecord {
	var r H2HRecord
	for _, m := range matches {
		s := teamSide(m, teamA, teamB)
		if s == sideUnknown {
			continue
		}
		r.Matches++
		switch {
		case m.HomeGoals == m.AwayGoals:
			r.Draws++
		case (m.HomeGoals > m.AwayGoals) == (s == sideHome):
			r.WinsA++
			if s == sideHome {
				r.WinsAHome++
			} else {
				r.WinsAAway++
			}
		default:
			r.WinsB++
			if s == sideAway {
				r.WinsBHome++
			} else {
				r.WinsBAway++
			}
		}
	}
	return r
}

// BuildH2HReport derives every head-to-head market for the two teams
func BuildH2HReport(matches []H2HMatchRecord, teamA, teamB string, opts H2HOptions) (H2HReport, error) {
	pair := make([]H2HMatchRecord, 0, len(matches))
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return H2HReport{}, err
		}
		if teamSide(m, teamA, teamB) != sideUnknown {
			pair = append(pair, m)
		}
	}

	rep := H2HReport{
		TeamA:  teamA,
		TeamB:  teamB,
		Record: BuildH2HRecord(pair, teamA, teamB),
		Goals:  ReconcileGoals(pair, teamA, teamB),
		Stats:  map[string]CounterSeries{},
	}
	rep.AverageGoals = MatchAverages(pair, nil)[GoalsKey]
	if p, odd, ok := GoallessFrequency(pair); ok {
		rep.Goalless = Some(p)
		rep.GoallessOdd = &odd
	}
	if gl, ok := EmpiricalGoalLines(pair, opts.GoalLines); ok {
		rep.GoalLines = gl
	}
	if b, ok := BothTeamsToScore(pair); ok {
		rep.BTTS = &b
	}

	for _, m := range pair {
		if m.StatsAvailable() {
			rep.StatMatches++
		}
	}
	for _, c := range opts.Counters {
		cs, err := buildCounterSeries(pair, teamA, teamB, c, opts)
		if err != nil {
			return H2HReport{}, err
		}
		rep.Stats[c] = cs
	}
	return rep, nil
}

func buildCounterSeries(matches []H2HMatchRecord, teamA, teamB, counter string, opts H2HOptions) (CounterSeries, error) {
	series := ReconcileH2H(matches, teamA, teamB, counter)
	totals := MatchTotals(matches, counter)
	cs := CounterSeries{
		Series:       series,
		MatchTotals:  totals,
		AverageA:     ComputeRate(sum(series.SeriesA), len(series.SeriesA)),
		AverageB:     ComputeRate(sum(series.SeriesB), len(series.SeriesB)),
		AverageTotal: ComputeRate(sum(totals), len(totals)),
	}
	if label, cv, ok := ClassifyVariation(series.SeriesA, opts.Thresholds); ok {
		cs.VariationA, cs.CVA = label, cv
	}
	if label, cv, ok := ClassifyVariation(series.SeriesB, opts.Thresholds); ok {
		cs.VariationB, cs.CVB = label, cv
	}

	var err error
	if cs.OddsA, err = seriesOdds(series.SeriesA, cs.AverageA, opts.Spread); err != nil {
		return cs, err
	}
	if cs.OddsB, err = seriesOdds(series.SeriesB, cs.AverageB, opts.Spread); err != nil {
		return cs, err
	}
	if cs.OddsTotal, err = seriesOdds(totals, cs.AverageTotal, opts.Spread); err != nil {
		return cs, err
	}
	return cs, nil
}

// seriesOdds prices a raw series on lines generated around its mean
func seriesOdds(series []float64, mean Optional, spread int) ([]OddsEntry, error) {
	m, ok := mean.Get()
	if !ok {
		return nil, nil
	}
	table, ok, err := OddsForSeries(series, GenerateLines(m, spread))
	if err != nil || !ok {
		return nil, err
	}
	return table, nil
}
