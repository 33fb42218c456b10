package samsbet

import (
	"sort"

	"github.com/SammMarshall/samsbet/pkg/util/odds"
)

// Counters that only the provider layer produces
const (
	SavesInsideBox    = "saves_inside_box"
	SavesOutsideBox   = "saves_outside_box"
	BigChancesAgainst = "big_chances_against"
)

// eventStat is the engine counter of an event statistics key and the only
// group it is read from. The provider repeats some keys across groups.
type eventStat struct {
	group, counter string
}

var eventStatKeys = map[string]eventStat{
	"totalShotsOnGoal": {"Shots", odds.TotalShots},
	"shotsOnGoal":      {"Shots", odds.ShotsOnTarget},
	"goalkeeperSaves":  {"Goalkeeping", odds.Saves},
	"cornerKicks":      {"Match overview", odds.CornersFor},
	"expectedGoals":    {"Match overview", odds.ExpectedGoals},
}

// PlayerRecord converts a season statistics row into a player StatRecord.
// Appearances count as matches played.
func PlayerRecord(p PlayerSeasonStats, team string) (odds.StatRecord, error) {
	return odds.NewStatRecord(p.Player.Name, team, p.Appearances, map[string]float64{
		odds.TotalShots:     p.TotalShots,
		odds.ShotsOnTarget:  p.ShotsOnTarget,
		odds.MinutesPlayed:  p.MinutesPlayed,
		odds.MatchesStarted: p.MatchesStarted,
		odds.Appearances:    float64(p.Appearances),
	})
}

// GoalkeeperRecord converts a season statistics row into a goalkeeper StatRecord
func GoalkeeperRecord(p PlayerSeasonStats, team string) (odds.StatRecord, error) {
	return odds.NewStatRecord(p.Player.Name, team, p.Appearances, map[string]float64{
		odds.Saves:       p.Saves,
		SavesInsideBox:   p.SavedShotsFromInsideTheBox,
		SavesOutsideBox:  p.SavedShotsFromOutsideTheBox,
		odds.CleanSheets: p.CleanSheet,
		odds.Appearances: float64(p.Appearances),
	})
}

// TeamRecord converts team season statistics into a team StatRecord. The
// standings row is the source of truth for matches played and goals. Without
// a row, goals scored come from the statistics payload and goals conceded
// are left out unless the payload carries them.
func TeamRecord(name string, s TeamSeasonStats, row StandingRow) (odds.StatRecord, error) {
	counters := map[string]float64{
		odds.TotalShots:           s.Shots,
		odds.ShotsOnTarget:        s.ShotsOnTarget,
		odds.ShotsInsideBox:       s.ShotsFromInsideTheBox,
		odds.BigChances:           s.BigChancesCreated,
		odds.GoalsScored:          s.GoalsScored,
		odds.PenaltyGoals:         s.PenaltyGoals,
		BigChancesAgainst:         s.BigChancesAgainst,
		odds.ShotsAgainst:         s.ShotsAgainst,
		odds.ShotsOnTargetAgainst: s.ShotsOnTargetAgainst,
		odds.Saves:                s.Saves,
		odds.CornersFor:           s.Corners,
		odds.CornersAgainst:       s.CornersAgainst,
		odds.CleanSheets:          s.CleanSheets,
	}
	matches := row.Matches
	if matches > 0 {
		counters[odds.GoalsFor] = float64(row.ScoresFor)
		counters[odds.GoalsAgainst] = float64(row.ScoresAgainst)
	} else {
		matches = s.Matches
		counters[odds.GoalsFor] = s.GoalsScored
		if s.GoalsConceded != nil {
			counters[odds.GoalsAgainst] = *s.GoalsConceded
		}
	}
	return odds.NewStatRecord(name, name, matches, counters)
}

// SumPeriods adds up the tracked event statistics of both sides. Regulation
// periods (1ST, 2ND) are preferred, the aggregate period is used only when
// the provider has nothing split by half.
func SumPeriods(periods []StatisticsPeriod) (home, away map[string]float64) {
	home, away = map[string]float64{}, map[string]float64{}
	split := false
	for _, p := range periods {
		if p.Period == "1ST" || p.Period == "2ND" {
			split = true
			break
		}
	}
	for _, p := range periods {
		isHalf := p.Period == "1ST" || p.Period == "2ND"
		if split != isHalf {
			continue
		}
		for _, g := range p.Groups {
			for _, item := range g.StatisticsItems {
				stat, ok := eventStatKeys[item.Key]
				if !ok || stat.group != g.GroupName {
					continue
				}
				home[stat.counter] += item.HomeValue
				away[stat.counter] += item.AwayValue
			}
		}
	}
	home[odds.ExpectedGoals] = odds.Round2(home[odds.ExpectedGoals])
	away[odds.ExpectedGoals] = odds.Round2(away[odds.ExpectedGoals])
	return home, away
}

// LastMatchLine is what a player did in their team's latest fixture
type LastMatchLine struct {
	PlayerID      int64   `json:"playerId"`
	PlayerName    string  `json:"playerName"`
	TotalShots    float64 `json:"totalShots"`
	ShotsOnTarget float64 `json:"shotsOnTarget"`
	Saves         float64 `json:"saves"`
}

// LastMatchLines extracts the shooting and saving lines of a lineup. Players
// who neither shot nor saved are left out.
func LastMatchLines(l Lineups) []LastMatchLine {
	var out []LastMatchLine
	for _, players := range [][]LineupPlayer{l.Home.Players, l.Away.Players} {
		for _, p := range players {
			onTarget := p.Stat("onTargetScoringAttempt")
			total := onTarget + p.Stat("shotOffTarget") + p.Stat("blockedScoringAttempt")
			saves := p.Stat("saves")
			if total == 0 && saves == 0 {
				continue
			}
			out = append(out, LastMatchLine{
				PlayerID:      p.Player.ID,
				PlayerName:    p.Player.Name,
				TotalShots:    total,
				ShotsOnTarget: onTarget,
				Saves:         saves,
			})
		}
	}
	return out
}

// H2HMatches turns the provider head-to-head list into match records. The
// first event is the upcoming fixture and is skipped. Scores exclude
// penalty shoot-outs. Statistics are attached by the caller.
func H2HMatches(events []Event) []odds.H2HMatchRecord {
	if len(events) <= 1 {
		return nil
	}
	out := make([]odds.H2HMatchRecord, 0, len(events)-1)
	for _, e := range events[1:] {
		home, away := e.HomeScore.Regular(), e.AwayScore.Regular()
		if home < 0 {
			home = 0
		}
		if away < 0 {
			away = 0
		}
		out = append(out, odds.H2HMatchRecord{
			EventID:      e.ID,
			StartTime:    e.StartTimestamp,
			HomeTeam:     e.HomeTeam.Name,
			AwayTeam:     e.AwayTeam.Name,
			HomeGoals:    home,
			AwayGoals:    away,
			MissingStats: true,
		})
	}
	// most recent first
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime > out[j].StartTime })
	return out
}

// AttachStats sets the per side statistics of a match
func AttachStats(m *odds.H2HMatchRecord, home, away map[string]float64) {
	m.Home, m.Away = home, away
	m.MissingStats = false
}
