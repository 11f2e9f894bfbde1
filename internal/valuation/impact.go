package valuation

// Per36 rescales a cumulative stat to a 36 minute basis. A season without
// recorded minutes normalizes to zero.
func Per36(stat, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return stat / minutes * MinutesBasis
}

// TrueShootingPct returns points / (2 * (FGA + 0.44 * FTA)), or zero when
// the player took no shots.
func TrueShootingPct(points, fieldGoalAttempts, freeThrowAttempts float64) float64 {
	denom := 2 * (fieldGoalAttempts + FreeThrowPossessionFactor*freeThrowAttempts)
	if denom <= 0 {
		return 0
	}
	return points / denom
}

// ScoreSeason computes the raw impact score of a single season.
func ScoreSeason(s SeasonStats) SeasonImpactBreakdown {
	w := DefaultImpactWeights()

	per36 := Per36Line{
		Points:    Per36(s.Points, s.Minutes),
		Assists:   Per36(s.Assists, s.Minutes),
		Rebounds:  Per36(s.Rebounds, s.Minutes),
		Steals:    Per36(s.Steals, s.Minutes),
		Blocks:    Per36(s.Blocks, s.Minutes),
		Turnovers: Per36(s.Turnovers, s.Minutes),
	}
	ts := TrueShootingPct(s.Points, s.FieldGoalsAttempted, s.FreeThrowsAttempted)
	efficiency := ts * 100

	c := ImpactContributions{
		Points:          per36.Points * w.Points,
		Assists:         per36.Assists * w.Assists,
		Rebounds:        per36.Rebounds * w.Rebounds,
		Steals:          per36.Steals * w.Steals,
		Blocks:          per36.Blocks * w.Blocks,
		Efficiency:      efficiency * w.Efficiency,
		TurnoverPenalty: per36.Turnovers * w.TurnoverPenalty,
	}
	score := c.Points + c.Assists + c.Rebounds + c.Steals + c.Blocks + c.Efficiency - c.TurnoverPenalty

	return SeasonImpactBreakdown{
		Season:          s.Season,
		Per36:           per36,
		TrueShooting:    ts,
		EfficiencyScale: efficiency,
		Contributions:   c,
		ImpactScore:     score,
	}
}
