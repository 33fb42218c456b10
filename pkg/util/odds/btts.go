package odds

// BTTS is the empirical both-teams-to-score market over a set of matches
type BTTS struct {
	Matches int     `json:"matches"`
	Both    int     `json:"both"`
	ProbYes float64 `json:"probYes"`
	ProbNo  float64 `json:"probNo"`
	OddYes  Odd     `json:"oddYes"`
	OddNo   Odd     `json:"oddNo"`
}

// BothTeamsToScore counts the matches where both sides scored. The result is
// not applicable below MinMatches.
func BothTeamsToScore(matches []H2HMatchRecord) (BTTS, bool) {
	if len(matches) < MinMatches {
		return BTTS{Matches: len(matches)}, false
	}
	both := 0
	for _, m := range matches {
		if m.HomeGoals > 0 && m.AwayGoals > 0 {
			both++
		}
	}
	p := float64(both) / float64(len(matches))
	return BTTS{
		Matches: len(matches),
		Both:    both,
		ProbYes: p,
		ProbNo:  1 - p,
		OddYes:  FairOdd(p),
		OddNo:   FairOdd(1 - p),
	}, true
}

// GoalLineFrequency is how often a historical total went over a line
type GoalLineFrequency struct {
	Line      float64 `json:"line"`
	ProbOver  float64 `json:"probOver"`
	ProbUnder float64 `json:"probUnder"`
	OddOver   Odd     `json:"oddOver"`
	OddUnder  Odd     `json:"oddUnder"`
}

// EmpiricalGoalLines counts, for each line, the share of matches whose total
// goals went over it. Not applicable below MinMatches.
func EmpiricalGoalLines(matches []H2HMatchRecord, lines []float64) ([]GoalLineFrequency, bool) {
	if len(matches) < MinMatches {
		return nil, false
	}
	n := float64(len(matches))
	out := make([]GoalLineFrequency, 0, len(lines))
	for _, l := range lines {
		overCount := 0
		for _, m := range matches {
			if float64(m.TotalGoals()) > l {
				overCount++
			}
		}
		p := float64(overCount) / n
		out = append(out, GoalLineFrequency{
			Line:      l,
			ProbOver:  p,
			ProbUnder: 1 - p,
			OddOver:   FairOdd(p),
			OddUnder:  FairOdd(1 - p),
		})
	}
	return out, true
}

// GoallessFrequency is the share of 0-0 matches with its fair odd
func GoallessFrequency(matches []H2HMatchRecord) (float64, Odd, bool) {
	if len(matches) < MinMatches {
		return 0, Odd{}, false
	}
	zero := 0
	for _, m := range matches {
		if m.TotalGoals() == 0 {
			zero++
		}
	}
	p := float64(zero) / float64(len(matches))
	return p, FairOdd(p), true
}
