package valuation

// Per-36 normalization basis.
const MinutesBasis = 36.0

// FreeThrowPossessionFactor approximates the share of a possession consumed
// by one free throw attempt.
const FreeThrowPossessionFactor = 0.44

// Season impact weights applied to per-36 production.
const (
	WeightPoints     = 0.35
	WeightAssists    = 0.20
	WeightRebounds   = 0.15
	WeightSteals     = 0.10
	WeightBlocks     = 0.10
	WeightEfficiency = 0.10
	PenaltyTurnovers = 0.05
)

// Qualification thresholds and recency weights for multi-season aggregation.
const (
	MinGamesPlayed   = 10
	MinMinutesPlayed = 100.0
	MaxRecentSeasons = 3
)

// RecencyWeights are applied to qualifying seasons, most recent first.
var RecencyWeights = [MaxRecentSeasons]float64{0.6, 0.3, 0.1}

// Age curve.
const (
	PeakAgeStart        = 26
	PeakAgeEnd          = 28
	YouthBonusPerYear   = 0.005
	YouthBonusCap       = 0.10
	AgingPenaltyPerYear = 0.01
	AgingPenaltyCap     = 0.10
)

// Fair value calibration anchors. Scores are adjusted impact scores,
// values are annual salary in whole dollars.
const (
	MedianAnchorScore = 12.5
	MedianAnchorValue = 11_000_000.0
	TopAnchorScore    = 21.0
	TopAnchorValue    = 50_000_000.0
	FairValueFloor    = 1_200_000.0
	FairValueCapRatio = 1.10
)

// Trajectory thresholds, in percent change between the two most recent
// qualifying seasons.
const (
	RisingThreshold    = 10.0
	DecliningThreshold = -10.0
)

// Stock index adjustments.
const (
	NeutralStockIndex = 50.0
	NeutralPercentile = 50.0
	RisingBonus       = 5.0
	DecliningPenalty  = -5.0
	MinStockIndex     = 0.0
	MaxStockIndex     = 100.0
)

// ImpactWeights is the inspectable form of the season impact weights.
type ImpactWeights struct {
	Points          float64 `json:"points"`
	Assists         float64 `json:"assists"`
	Rebounds        float64 `json:"rebounds"`
	Steals          float64 `json:"steals"`
	Blocks          float64 `json:"blocks"`
	Efficiency      float64 `json:"efficiency"`
	TurnoverPenalty float64 `json:"turnover_penalty"`
}

// DefaultImpactWeights returns the fixed season impact weights.
func DefaultImpactWeights() ImpactWeights {
	return ImpactWeights{
		Points:          WeightPoints,
		Assists:         WeightAssists,
		Rebounds:        WeightRebounds,
		Steals:          WeightSteals,
		Blocks:          WeightBlocks,
		Efficiency:      WeightEfficiency,
		TurnoverPenalty: PenaltyTurnovers,
	}
}

// CalibrationAnchors describes the two-point fair value line and its bounds.
type CalibrationAnchors struct {
	MedianScore float64 `json:"median_score"`
	MedianValue float64 `json:"median_value"`
	TopScore    float64 `json:"top_score"`
	TopValue    float64 `json:"top_value"`
	Floor       float64 `json:"floor"`
	CapRatio    float64 `json:"cap_ratio"`
}

// DefaultCalibration returns the fixed calibration anchors.
func DefaultCalibration() CalibrationAnchors {
	return CalibrationAnchors{
		MedianScore: MedianAnchorScore,
		MedianValue: MedianAnchorValue,
		TopScore:    TopAnchorScore,
		TopValue:    TopAnchorValue,
		Floor:       FairValueFloor,
		CapRatio:    FairValueCapRatio,
	}
}

// ModelConstants groups every fixed constant the engine uses.
type ModelConstants struct {
	MinutesBasis        float64            `json:"minutes_basis"`
	FreeThrowFactor     float64            `json:"free_throw_factor"`
	ImpactWeights       ImpactWeights      `json:"impact_weights"`
	MinGamesPlayed      int                `json:"min_games_played"`
	MinMinutesPlayed    float64            `json:"min_minutes_played"`
	RecencyWeights      []float64          `json:"recency_weights"`
	PeakAgeStart        int                `json:"peak_age_start"`
	PeakAgeEnd          int                `json:"peak_age_end"`
	YouthBonusPerYear   float64            `json:"youth_bonus_per_year"`
	YouthBonusCap       float64            `json:"youth_bonus_cap"`
	AgingPenaltyPerYear float64            `json:"aging_penalty_per_year"`
	AgingPenaltyCap     float64            `json:"aging_penalty_cap"`
	Calibration         CalibrationAnchors `json:"calibration"`
	RisingThreshold     float64            `json:"rising_threshold_pct"`
	DecliningThreshold  float64            `json:"declining_threshold_pct"`
	RisingBonus         float64            `json:"rising_bonus"`
	DecliningPenalty    float64            `json:"declining_penalty"`
}

// Constants returns a snapshot of the model constants for inspection.
func Constants() ModelConstants {
	return ModelConstants{
		MinutesBasis:        MinutesBasis,
		FreeThrowFactor:     FreeThrowPossessionFactor,
		ImpactWeights:       DefaultImpactWeights(),
		MinGamesPlayed:      MinGamesPlayed,
		MinMinutesPlayed:    MinMinutesPlayed,
		RecencyWeights:      append([]float64(nil), RecencyWeights[:]...),
		PeakAgeStart:        PeakAgeStart,
		PeakAgeEnd:          PeakAgeEnd,
		YouthBonusPerYear:   YouthBonusPerYear,
		YouthBonusCap:       YouthBonusCap,
		AgingPenaltyPerYear: AgingPenaltyPerYear,
		AgingPenaltyCap:     AgingPenaltyCap,
		Calibration:         DefaultCalibration(),
		RisingThreshold:     RisingThreshold,
		DecliningThreshold:  DecliningThreshold,
		RisingBonus:         RisingBonus,
		DecliningPenalty:    DecliningPenalty,
	}
}
