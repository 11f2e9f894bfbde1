package valuation

import "math"

// ClassifyTrajectory labels the direction between the two most recent
// qualifying seasons. seasons must be most recent first, as produced by
// AggregateSeasons.
//
// This is a two-point difference, not a fitted trend: one outlier season
// flips the label.
func ClassifyTrajectory(seasons []SeasonContribution) TrajectoryAssessment {
	if len(seasons) < 2 {
		return TrajectoryAssessment{Label: TrajectoryUnknown}
	}
	recent, previous := seasons[0], seasons[1]

	out := TrajectoryAssessment{
		RecentSeason:   recent.Season,
		PreviousSeason: previous.Season,
		RecentScore:    recent.ImpactScore,
		PreviousScore:  previous.ImpactScore,
	}
	label, change := classify(recent.ImpactScore, previous.ImpactScore)
	out.Label = label
	out.PercentChange = change
	return out
}

// classify returns the label and percent change. A zero previous score has
// no percent change; the sign of the difference decides the label. A
// negative previous score is measured against its magnitude so that
// improvement still reads as rising; for a positive previous score this is
// exactly (recent - previous) / previous * 100.
func classify(recent, previous float64) (Trajectory, *float64) {
	if previous == 0 {
		switch {
		case recent > 0:
			return TrajectoryRising, nil
		case recent < 0:
			return TrajectoryDeclining, nil
		default:
			return TrajectoryStable, nil
		}
	}

	pct := (recent - previous) / math.Abs(previous) * 100
	switch {
	case pct > RisingThreshold:
		return TrajectoryRising, &pct
	case pct < DecliningThreshold:
		return TrajectoryDeclining, &pct
	default:
		return TrajectoryStable, &pct
	}
}
