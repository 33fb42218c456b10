package odds

// ComputeRate is total/matches rounded to two decimals, undefined when no
// matches were played
func ComputeRate(total float64, matches int) Optional {
	if matches <= 0 {
		return None()
	}
	return Some(Round2(total / float64(matches)))
}

// NewRateRow applies ComputeRate to every counter of the record
func NewRateRow(rec StatRecord) RateRow {
	row := RateRow{
		StatRecord: rec,
		Rates:      make(map[string]Optional, len(rec.Counters)),
	}
	for name, total := range rec.Counters {
		row.Rates[name] = ComputeRate(total, rec.MatchesPlayed)
	}
	return row
}

// NewRateRows converts a slice of records
func NewRateRows(recs []StatRecord) []RateRow {
	rows := make([]RateRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, NewRateRow(r))
	}
	return rows
}

// ratio is num/den rounded, undefined when den is zero
func ratio(num, den float64) Optional {
	if den <= 0 {
		return None()
	}
	return Some(Round2(num / den))
}

// percentage is num/den*100, undefined when den is zero
func percentage(num, den float64) Optional {
	if den <= 0 {
		return None()
	}
	return Some(Round2(num / den * 100))
}

// PlayerRatios are the derived per-player shooting figures
type PlayerRatios struct {
	ShotsPerMatch          Optional `json:"shotsPerMatch"`
	ShotsOnTargetPerMatch  Optional `json:"shotsOnTargetPerMatch"`
	MinutesPerShot         Optional `json:"minutesPerShot"`
	MinutesPerShotOnTarget Optional `json:"minutesPerShotOnTarget"`
	MinutesPerMatch        Optional `json:"minutesPerMatch"`
	Efficiency             float64  `json:"efficiency"`
}

// NewPlayerRatios derives the shooting ratios of a player record
func NewPlayerRatios(rec StatRecord) PlayerRatios {
	minutes := rec.Counter(MinutesPlayed)
	return PlayerRatios{
		ShotsPerMatch:          ComputeRate(rec.Counter(TotalShots), rec.MatchesPlayed),
		ShotsOnTargetPerMatch:  ComputeRate(rec.Counter(ShotsOnTarget), rec.MatchesPlayed),
		MinutesPerShot:         ratio(minutes, rec.Counter(TotalShots)),
		MinutesPerShotOnTarget: ratio(minutes, rec.Counter(ShotsOnTarget)),
		MinutesPerMatch:        ratio(minutes, float64(rec.MatchesPlayed)),
		Efficiency:             Efficiency(rec.Counter(ShotsOnTarget), rec.Counter(TotalShots)),
	}
}

// Efficiency is the percentage of shots on target. Unlike rates it is
// reported as 0 rather than undefined when there were no shots.
func Efficiency(onTarget, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(onTarget / total * 100)
}

// TeamRatios summarise a team season record
type TeamRatios struct {
	ShotsPerMatch                Optional `json:"shotsPerMatch"`
	ShotsOnTargetPerMatch        Optional `json:"shotsOnTargetPerMatch"`
	BigChancesPerMatch           Optional `json:"bigChancesPerMatch"`
	CornersPerMatch              Optional `json:"cornersPerMatch"`
	SavesPerMatch                Optional `json:"savesPerMatch"`
	GoalsPerMatch                Optional `json:"goalsPerMatch"`
	ShotsConcededPerMatch        Optional `json:"shotsConcededPerMatch"`
	ShotsOnTargetConcededPerGame Optional `json:"shotsOnTargetConcededPerMatch"`
	GoalsConcededPerMatch        Optional `json:"goalsConcededPerMatch"`
	CornersConcededPerMatch      Optional `json:"cornersConcededPerMatch"`
	DangerIndex                  Optional `json:"dangerIndex"`
	BigChanceConversion          Optional `json:"bigChanceConversion"`
	CleanSheetPercentage         Optional `json:"cleanSheetPercentage"`
}

// NewTeamRatios derives the team summary. Every figure is undefined when the
// team has not played.
func NewTeamRatios(rec StatRecord) TeamRatios {
	m := rec.MatchesPlayed
	tr := TeamRatios{
		ShotsPerMatch:                ComputeRate(rec.Counter(TotalShots), m),
		ShotsOnTargetPerMatch:        ComputeRate(rec.Counter(ShotsOnTarget), m),
		BigChancesPerMatch:           ComputeRate(rec.Counter(BigChances), m),
		CornersPerMatch:              ComputeRate(rec.Counter(CornersFor), m),
		SavesPerMatch:                ComputeRate(rec.Counter(Saves), m),
		GoalsPerMatch:                ComputeRate(rec.Counter(GoalsFor), m),
		ShotsConcededPerMatch:        ComputeRate(rec.Counter(ShotsAgainst), m),
		ShotsOnTargetConcededPerGame: ComputeRate(rec.Counter(ShotsOnTargetAgainst), m),
		GoalsConcededPerMatch:        None(),
		CornersConcededPerMatch:      ComputeRate(rec.Counter(CornersAgainst), m),
		CleanSheetPercentage:         CleanSheetPercentage(rec),
	}
	if against, ok := rec.Lookup(GoalsAgainst); ok {
		tr.GoalsConcededPerMatch = ComputeRate(against, m)
	}
	if m > 0 {
		tr.DangerIndex = percentage(rec.Counter(ShotsInsideBox), rec.Counter(TotalShots))
		// season statistics goals, the same source as penalty goals
		scored, ok := rec.Lookup(GoalsScored)
		if !ok {
			scored = rec.Counter(GoalsFor)
		}
		nonPenalty := scored - rec.Counter(PenaltyGoals)
		if nonPenalty < 0 {
			nonPenalty = 0
		}
		tr.BigChanceConversion = percentage(nonPenalty, rec.Counter(BigChances))
	}
	return tr
}

// CleanSheetPercentage is clean sheets per match played as a percentage
func CleanSheetPercentage(rec StatRecord) Optional {
	return percentage(rec.Counter(CleanSheets), float64(rec.MatchesPlayed))
}
