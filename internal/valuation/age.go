package valuation

import "math"

// AgeFactor returns the multiplier applied to the aggregated impact score.
func AgeFactor(age int) float64 {
	return AdjustForAge(age).Factor
}

// AdjustForAge evaluates the age curve: 1.0 across the 26-28 peak, +0.5%
// per year below 26 capped at +10%, -1% per year above 28 capped at -10%.
// An age of zero means the age is unknown and leaves the score unchanged.
func AdjustForAge(age int) AgeAdjustment {
	adj := AgeAdjustment{Age: age, Factor: 1.0}

	switch {
	case age <= 0:
		adj.Rule = AgeRuleUnknown
	case age < PeakAgeStart:
		adj.Rule = AgeRuleYouth
		adj.YearsFromPeak = PeakAgeStart - age
		raw := float64(adj.YearsFromPeak) * YouthBonusPerYear
		adj.Adjustment = math.Min(raw, YouthBonusCap)
		adj.Capped = raw >= YouthBonusCap
		adj.Factor = 1 + adj.Adjustment
	case age > PeakAgeEnd:
		adj.Rule = AgeRuleAging
		adj.YearsFromPeak = age - PeakAgeEnd
		raw := float64(adj.YearsFromPeak) * AgingPenaltyPerYear
		adj.Adjustment = -math.Min(raw, AgingPenaltyCap)
		adj.Capped = raw >= AgingPenaltyCap
		adj.Factor = 1 + adj.Adjustment
	default:
		adj.Rule = AgeRulePeak
	}
	return adj
}
