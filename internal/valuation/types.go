package valuation

// SeasonStats holds one player-season of cumulative totals. Totals are
// floats because some feeds derive them from per-game averages.
type SeasonStats struct {
	Season                 string  `json:"season"`
	Team                   string  `json:"team,omitempty"`
	GamesPlayed            int     `json:"games_played"`
	Minutes                float64 `json:"minutes"`
	Points                 float64 `json:"points"`
	Assists                float64 `json:"assists"`
	Rebounds               float64 `json:"rebounds"`
	Steals                 float64 `json:"steals"`
	Blocks                 float64 `json:"blocks"`
	Turnovers              float64 `json:"turnovers"`
	FieldGoalsMade         float64 `json:"field_goals_made"`
	FieldGoalsAttempted    float64 `json:"field_goals_attempted"`
	ThreePointersMade      float64 `json:"three_pointers_made"`
	ThreePointersAttempted float64 `json:"three_pointers_attempted"`
	FreeThrowsMade         float64 `json:"free_throws_made"`
	FreeThrowsAttempted    float64 `json:"free_throws_attempted"`
	Age                    *int    `json:"age,omitempty"`
}

// Trajectory is the coarse direction of a player's recent production.
type Trajectory string

const (
	TrajectoryRising    Trajectory = "rising"
	TrajectoryStable    Trajectory = "stable"
	TrajectoryDeclining Trajectory = "declining"
	TrajectoryUnknown   Trajectory = "unknown"
)

// Per36Line is a season's production rescaled to 36 minutes.
type Per36Line struct {
	Points    float64 `json:"points"`
	Assists   float64 `json:"assists"`
	Rebounds  float64 `json:"rebounds"`
	Steals    float64 `json:"steals"`
	Blocks    float64 `json:"blocks"`
	Turnovers float64 `json:"turnovers"`
}

// ImpactContributions are the weighted terms summed into an impact score.
// TurnoverPenalty is stored as a positive amount that is subtracted.
type ImpactContributions struct {
	Points          float64 `json:"points"`
	Assists         float64 `json:"assists"`
	Rebounds        float64 `json:"rebounds"`
	Steals          float64 `json:"steals"`
	Blocks          float64 `json:"blocks"`
	Efficiency      float64 `json:"efficiency"`
	TurnoverPenalty float64 `json:"turnover_penalty"`
}

// SeasonImpactBreakdown explains how one season's raw impact score was built.
type SeasonImpactBreakdown struct {
	Season          string              `json:"season"`
	Per36           Per36Line           `json:"per36"`
	TrueShooting    float64             `json:"true_shooting_pct"`
	EfficiencyScale float64             `json:"efficiency_scaled"`
	Contributions   ImpactContributions `json:"contributions"`
	ImpactScore     float64             `json:"impact_score"`
}

// SeasonContribution records how a season took part in aggregation.
type SeasonContribution struct {
	Season           string                 `json:"season"`
	Team             string                 `json:"team,omitempty"`
	GamesPlayed      int                    `json:"games_played"`
	Minutes          float64                `json:"minutes"`
	Qualified        bool                   `json:"qualified"`
	SkipReason       string                 `json:"skip_reason,omitempty"`
	ImpactScore      float64                `json:"impact_score"`
	RecencyWeight    float64                `json:"recency_weight"`
	NormalizedWeight float64                `json:"normalized_weight"`
	WeightedScore    float64                `json:"weighted_score"`
	Breakdown        *SeasonImpactBreakdown `json:"breakdown,omitempty"`
}

// Aggregation is the multi-season weighted impact and the seasons behind it.
// Seasons holds the qualifying seasons that were used, most recent first.
type Aggregation struct {
	Score     float64              `json:"score"`
	WeightSum float64              `json:"weight_sum"`
	Seasons   []SeasonContribution `json:"seasons"`
	Skipped   []SeasonContribution `json:"skipped,omitempty"`
}

// AgeRule names the branch of the age curve that produced a factor.
type AgeRule string

const (
	AgeRulePeak    AgeRule = "peak"
	AgeRuleYouth   AgeRule = "youth_bonus"
	AgeRuleAging   AgeRule = "aging_penalty"
	AgeRuleUnknown AgeRule = "unknown_age"
)

// AgeAdjustment explains the age multiplier.
type AgeAdjustment struct {
	Age           int     `json:"age"`
	Rule          AgeRule `json:"rule"`
	YearsFromPeak int     `json:"years_from_peak"`
	Adjustment    float64 `json:"adjustment"`
	Capped        bool    `json:"capped"`
	Factor        float64 `json:"factor"`
}

// FairValueCalibration explains the score to money mapping.
type FairValueCalibration struct {
	Anchors   CalibrationAnchors `json:"anchors"`
	Slope     float64            `json:"slope"`
	Intercept float64            `json:"intercept"`
	Score     float64            `json:"score"`
	Linear    float64            `json:"linear_value"`
	Cap       float64            `json:"cap"`
	Floored   bool               `json:"floored"`
	Capped    bool               `json:"capped"`
	Value     float64            `json:"value"`
}

// TrajectoryAssessment explains the trajectory label.
type TrajectoryAssessment struct {
	Label          Trajectory `json:"label"`
	RecentSeason   string     `json:"recent_season,omitempty"`
	PreviousSeason string     `json:"previous_season,omitempty"`
	RecentScore    float64    `json:"recent_score"`
	PreviousScore  float64    `json:"previous_score"`
	PercentChange  *float64   `json:"percent_change,omitempty"`
}

// StockIndexBreakdown explains the stock index.
type StockIndexBreakdown struct {
	Neutral              bool    `json:"neutral"`
	Reason               string  `json:"reason,omitempty"`
	PopulationSize       int     `json:"population_size"`
	PlayersBelow         int     `json:"players_below"`
	Percentile           float64 `json:"percentile"`
	TrajectoryAdjustment float64 `json:"trajectory_adjustment"`
	Index                float64 `json:"index"`
}

// Compensation pairs a known salary with the surplus it implies. A
// valuation carries either both figures or neither.
type Compensation struct {
	ActualValue  float64 `json:"actual_value"`
	SurplusValue float64 `json:"surplus_value"`
}

// Explanation carries every intermediate figure of a valuation.
type Explanation struct {
	Weights             ImpactWeights          `json:"weights"`
	CurrentSeason       *SeasonImpactBreakdown `json:"current_season,omitempty"`
	MergedSeasons       []string               `json:"merged_seasons,omitempty"`
	IgnoredLaterSeasons []string               `json:"ignored_later_seasons,omitempty"`
	Aggregation         Aggregation            `json:"aggregation"`
	Age                 AgeAdjustment          `json:"age"`
	FairValue           FairValueCalibration   `json:"fair_value"`
	Trajectory          TrajectoryAssessment   `json:"trajectory"`
	StockIndex          StockIndexBreakdown    `json:"stock_index"`
}

// ValuationResult is the engine output for one (player, season).
type ValuationResult struct {
	PlayerID            string        `json:"player_id"`
	Season              string        `json:"season"`
	Age                 int           `json:"age"`
	CurrentImpactScore  float64       `json:"current_impact_score"`
	WeightedImpactScore float64       `json:"weighted_impact_score"`
	AgeFactor           float64       `json:"age_factor"`
	AdjustedImpactScore float64       `json:"adjusted_impact_score"`
	FairValue           float64       `json:"fair_value"`
	Compensation        *Compensation `json:"compensation"`
	StockIndex          float64       `json:"stock_index"`
	Trajectory          Trajectory    `json:"trajectory"`
	Explanation         Explanation   `json:"explanation"`
}

// ActualValue returns the known salary, if any.
func (r *ValuationResult) ActualValue() (float64, bool) {
	if r.Compensation == nil {
		return 0, false
	}
	return r.Compensation.ActualValue, true
}

// SurplusValue returns fair value minus salary, if a salary is known.
func (r *ValuationResult) SurplusValue() (float64, bool) {
	if r.Compensation == nil {
		return 0, false
	}
	return r.Compensation.SurplusValue, true
}
