package valuation

import (
	"math"
	"sort"
)

// Population is an immutable, sorted snapshot of comparison surplus values.
type Population struct {
	sorted []float64
}

// NewPopulation copies and sorts values. NaN entries are dropped.
func NewPopulation(values []float64) Population {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	return Population{sorted: sorted}
}

// Len returns the number of comparison values.
func (p Population) Len() int {
	return len(p.sorted)
}

// CountBelow returns how many values are strictly less than v.
func (p Population) CountBelow(v float64) int {
	return sort.SearchFloat64s(p.sorted, v)
}

// Without returns a copy of the population with one occurrence of v
// removed. It is used to exclude a player's own surplus from the
// population built for a batch.
func (p Population) Without(v float64) Population {
	i := sort.SearchFloat64s(p.sorted, v)
	if i >= len(p.sorted) || p.sorted[i] != v {
		return p
	}
	out := make([]float64, 0, len(p.sorted)-1)
	out = append(out, p.sorted[:i]...)
	out = append(out, p.sorted[i+1:]...)
	return Population{sorted: out}
}

// Values returns a copy of the sorted values.
func (p Population) Values() []float64 {
	return append([]float64(nil), p.sorted...)
}

// TrajectoryAdjustment returns the stock index bonus for a trajectory.
func TrajectoryAdjustment(t Trajectory) float64 {
	switch t {
	case TrajectoryRising:
		return RisingBonus
	case TrajectoryDeclining:
		return DecliningPenalty
	default:
		return 0
	}
}

// ComputeStockIndex ranks a surplus value against a population and applies
// the trajectory adjustment, clamped to [0, 100]. A nil surplus (no known
// salary) yields the neutral index of 50 with no adjustment. An empty
// population gives a neutral percentile but still applies the adjustment.
func ComputeStockIndex(surplus *float64, pop Population, t Trajectory) StockIndexBreakdown {
	if surplus == nil {
		return StockIndexBreakdown{
			Neutral:    true,
			Reason:     "no compensation on record",
			Percentile: NeutralPercentile,
			Index:      NeutralStockIndex,
		}
	}

	out := StockIndexBreakdown{
		PopulationSize:       pop.Len(),
		TrajectoryAdjustment: TrajectoryAdjustment(t),
	}
	if pop.Len() == 0 {
		out.Reason = "empty comparison population"
		out.Percentile = NeutralPercentile
	} else {
		out.PlayersBelow = pop.CountBelow(*surplus)
		out.Percentile = float64(out.PlayersBelow) / float64(pop.Len()) * 100
	}
	out.Index = clamp(out.Percentile+out.TrajectoryAdjustment, MinStockIndex, MaxStockIndex)
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
