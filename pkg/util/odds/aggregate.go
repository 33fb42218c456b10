package odds

import (
	"sort"
)

// AggregateTeam rolls player rows up into one team row. Counters are summed
// and matches played is the maximum across players, a squad cannot have
// played more matches than its most used player.
func AggregateTeam(rows []RateRow) RateRow {
	team := StatRecord{Counters: map[string]float64{}}
	for _, r := range rows {
		if team.TeamName == "" {
			team.TeamName = r.TeamName
		}
		if r.MatchesPlayed > team.MatchesPlayed {
			team.MatchesPlayed = r.MatchesPlayed
		}
		for name, v := range r.Counters {
			team.Counters[name] += v
		}
	}
	team.EntityName = team.TeamName
	return NewRateRow(team)
}

// GroupByTeam aggregates player rows per team, sorted by team name
func GroupByTeam(rows []RateRow) []RateRow {
	byTeam := map[string][]RateRow{}
	for _, r := range rows {
		byTeam[r.TeamName] = append(byTeam[r.TeamName], r)
	}
	names := make([]string, 0, len(byTeam))
	for name := range byTeam {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]RateRow, 0, len(names))
	for _, name := range names {
		out = append(out, AggregateTeam(byTeam[name]))
	}
	return out
}

// side tells which side teamA played in a match
type side int

const (
	sideUnknown side = iota
	sideHome
	sideAway
)

func teamSide(m H2HMatchRecord, teamA, teamB string) side {
	switch {
	case SameTeam(m.HomeTeam, teamA) && SameTeam(m.AwayTeam, teamB):
		return sideHome
	case SameTeam(m.HomeTeam, teamB) && SameTeam(m.AwayTeam, teamA):
		return sideAway
	default:
		return sideUnknown
	}
}

// ReconcileH2H re-expresses a head-to-head history as one series per team for
// counter. Matches without statistics and matches that are not between the
// two teams are left out.
func ReconcileH2H(matches []H2HMatchRecord, teamA, teamB, counter string) H2HSeries {
	s := H2HSeries{TeamA: teamA, TeamB: teamB, Counter: counter, SeriesA: []float64{}, SeriesB: []float64{}}
	for _, m := range matches {
		if !m.StatsAvailable() {
			continue
		}
		switch teamSide(m, teamA, teamB) {
		case sideHome:
			s.SeriesA = append(s.SeriesA, m.Home[counter])
			s.SeriesB = append(s.SeriesB, m.Away[counter])
		case sideAway:
			s.SeriesA = append(s.SeriesA, m.Away[counter])
			s.SeriesB = append(s.SeriesB, m.Home[counter])
		default:
			continue
		}
		s.EventIDs = append(s.EventIDs, m.EventID)
	}
	return s
}

// ReconcileGoals is ReconcileH2H for goals scored. Scores are always known so
// every match between the two teams is kept.
func ReconcileGoals(matches []H2HMatchRecord, teamA, teamB string) H2HSeries {
	s := H2HSeries{TeamA: teamA, TeamB: teamB, Counter: GoalsFor, SeriesA: []float64{}, SeriesB: []float64{}}
	for _, m := range matches {
		switch teamSide(m, teamA, teamB) {
		case sideHome:
			s.SeriesA = append(s.SeriesA, float64(m.HomeGoals))
			s.SeriesB = append(s.SeriesB, float64(m.AwayGoals))
		case sideAway:
			s.SeriesA = append(s.SeriesA, float64(m.AwayGoals))
			s.SeriesB = append(s.SeriesB, float64(m.HomeGoals))
		default:
			continue
		}
		s.EventIDs = append(s.EventIDs, m.EventID)
	}
	return s
}

// MatchTotal is home plus away for counter, undefined when the match carries
// no statistics
func MatchTotal(m H2HMatchRecord, counter string) Optional {
	if !m.StatsAvailable() {
		return None()
	}
	return Some(m.Home[counter] + m.Away[counter])
}

// MatchTotals returns the per-match totals of counter over the matches that
// carry statistics
func MatchTotals(matches []H2HMatchRecord, counter string) []float64 {
	out := []float64{}
	for _, m := range matches {
		if v, ok := MatchTotal(m, counter).Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// GoalsKey is the MatchAverages key for total goals
const GoalsKey = "goals"

// MatchAverages is the mean per-match total of every counter, plus the mean
// total goals under GoalsKey. Stat averages only use matches carrying
// statistics, the goals average uses every match.
func MatchAverages(matches []H2HMatchRecord, counters []string) map[string]Optional {
	out := make(map[string]Optional, len(counters)+1)
	for _, c := range counters {
		totals := MatchTotals(matches, c)
		out[c] = ComputeRate(sum(totals), len(totals))
	}
	var goals float64
	for _, m := range matches {
		goals += float64(m.TotalGoals())
	}
	out[GoalsKey] = ComputeRate(goals, len(matches))
	return out
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}
