package valuation

import "gonum.org/v1/gonum/stat"

const (
	skipTooFewGames   = "fewer than 10 games played"
	skipTooFewMinutes = "fewer than 100 minutes played"
	skipOutsideWindow = "outside the three-season recency window"
)

// Qualifies reports whether a season carries enough playing time to count
// toward the multi-season score.
func Qualifies(s SeasonStats) bool {
	return s.GamesPlayed >= MinGamesPlayed && s.Minutes >= MinMinutesPlayed
}

func skipReason(s SeasonStats) string {
	if s.GamesPlayed < MinGamesPlayed {
		return skipTooFewGames
	}
	return skipTooFewMinutes
}

// AggregateSeasons combines up to three of the most recent qualifying
// seasons with recency weights 0.6/0.3/0.1, renormalized over the weights
// actually used. Unqualified seasons do not consume a weight slot. Season
// ids are expected to be unique; the input order does not matter.
func AggregateSeasons(seasons []SeasonStats) Aggregation {
	sorted := make([]SeasonStats, len(seasons))
	copy(sorted, seasons)
	sortMostRecentFirst(sorted)

	var agg Aggregation
	for _, s := range sorted {
		entry := SeasonContribution{
			Season:      s.Season,
			Team:        s.Team,
			GamesPlayed: s.GamesPlayed,
			Minutes:     s.Minutes,
		}
		if !Qualifies(s) {
			entry.SkipReason = skipReason(s)
			agg.Skipped = append(agg.Skipped, entry)
			continue
		}
		if len(agg.Seasons) == MaxRecentSeasons {
			entry.Qualified = true
			entry.SkipReason = skipOutsideWindow
			agg.Skipped = append(agg.Skipped, entry)
			continue
		}

		breakdown := ScoreSeason(s)
		entry.Qualified = true
		entry.Breakdown = &breakdown
		entry.ImpactScore = breakdown.ImpactScore
		entry.RecencyWeight = RecencyWeights[len(agg.Seasons)]
		agg.WeightSum += entry.RecencyWeight
		agg.Seasons = append(agg.Seasons, entry)
	}

	if agg.WeightSum == 0 {
		return agg
	}

	scores := make([]float64, len(agg.Seasons))
	weights := make([]float64, len(agg.Seasons))
	for i := range agg.Seasons {
		e := &agg.Seasons[i]
		e.NormalizedWeight = e.RecencyWeight / agg.WeightSum
		e.WeightedScore = e.ImpactScore * e.NormalizedWeight
		scores[i] = e.ImpactScore
		weights[i] = e.RecencyWeight
	}
	agg.Score = stat.Mean(scores, weights)
	return agg
}
