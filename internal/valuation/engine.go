package valuation

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CompensationLookup resolves a known salary for a player-season.
type CompensationLookup interface {
	Salary(playerID, season string) (float64, bool)
}

// PlayerInput is one player's history valued as of Season.
type PlayerInput struct {
	PlayerID string        `json:"player_id"`
	Season   string        `json:"season"`
	Age      int           `json:"age,omitempty"`
	Seasons  []SeasonStats `json:"seasons"`
}

// Engine composes the valuation steps. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	calibration CalibrationAnchors
	workers     int
}

// NewEngine creates an engine. workers bounds batch parallelism; zero or
// less uses GOMAXPROCS.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		calibration: DefaultCalibration(),
		workers:     workers,
	}
}

// Assess runs every step except the stock index. The returned result has a
// zero StockIndex until Rank is applied.
func (e *Engine) Assess(in PlayerInput, comp CompensationLookup) (*ValuationResult, error) {
	if in.PlayerID == "" {
		return nil, ErrMissingPlayerID
	}
	if err := ValidateSeasonID(in.Season); err != nil {
		return nil, fmt.Errorf("target season: %w", err)
	}
	history, err := prepareHistory(in.Seasons, in.Season)
	if err != nil {
		return nil, fmt.Errorf("player %s: %w", in.PlayerID, err)
	}

	result := &ValuationResult{
		PlayerID: in.PlayerID,
		Season:   in.Season,
		Explanation: Explanation{
			Weights:             DefaultImpactWeights(),
			MergedSeasons:       history.merged,
			IgnoredLaterSeasons: history.ignored,
		},
	}

	age := in.Age
	for _, s := range history.seasons {
		if s.Season != in.Season {
			continue
		}
		current := ScoreSeason(s)
		result.CurrentImpactScore = current.ImpactScore
		result.Explanation.CurrentSeason = &current
		if age == 0 && s.Age != nil {
			age = *s.Age
		}
	}
	result.Age = age

	agg := AggregateSeasons(history.seasons)
	result.WeightedImpactScore = agg.Score
	result.Explanation.Aggregation = agg

	ageAdj := AdjustForAge(age)
	result.AgeFactor = ageAdj.Factor
	result.AdjustedImpactScore = agg.Score * ageAdj.Factor
	result.Explanation.Age = ageAdj

	fv := calibrate(e.calibration, result.AdjustedImpactScore)
	result.FairValue = fv.Value
	result.Explanation.FairValue = fv

	if comp != nil {
		if salary, ok := comp.Salary(in.PlayerID, in.Season); ok {
			result.Compensation = &Compensation{
				ActualValue:  salary,
				SurplusValue: fv.Value - salary,
			}
		}
	}

	traj := ClassifyTrajectory(agg.Seasons)
	result.Trajectory = traj.Label
	result.Explanation.Trajectory = traj
	return result, nil
}

// Rank applies the stock index to an assessed result.
func (e *Engine) Rank(r *ValuationResult, pop Population) {
	var surplus *float64
	if s, ok := r.SurplusValue(); ok {
		surplus = &s
	}
	idx := ComputeStockIndex(surplus, pop, r.Trajectory)
	r.StockIndex = idx.Index
	r.Explanation.StockIndex = idx
}

// Valuate values one player against a caller-supplied comparison
// population of surplus values from other players in the same season.
func (e *Engine) Valuate(in PlayerInput, comp CompensationLookup, population []float64) (*ValuationResult, error) {
	r, err := e.Assess(in, comp)
	if err != nil {
		return nil, err
	}
	e.Rank(r, NewPopulation(population))
	return r, nil
}

// ValuateBatch values many players in parallel. Each player's stock index is
// ranked against the exact surplus values of the other players in the
// batch valued as of the same season. Results keep the input order. Any
// malformed input fails the batch.
func (e *Engine) ValuateBatch(ctx context.Context, inputs []PlayerInput, comp CompensationLookup) ([]*ValuationResult, error) {
	results := make([]*ValuationResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.Assess(inputs[i], comp)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bySeason := make(map[string][]*ValuationResult)
	for _, r := range results {
		bySeason[r.Season] = append(bySeason[r.Season], r)
	}
	for _, group := range bySeason {
		pop := NewPopulation(SurplusValues(group))
		for _, r := range group {
			own := pop
			if s, ok := r.SurplusValue(); ok {
				own = pop.Without(s)
			}
			e.Rank(r, own)
		}
	}
	return results, nil
}

// SurplusValues collects the surplus of every result that has a known salary.
func SurplusValues(results []*ValuationResult) []float64 {
	values := make([]float64, 0, len(results))
	for _, r := range results {
		if s, ok := r.SurplusValue(); ok {
			values = append(values, s)
		}
	}
	return values
}

// ApproximateSurplus is the cheap population estimate: the target season's
// standalone impact score, without recency weighting or age adjustment,
// calibrated and compared with the salary. It trades accuracy for not
// running a full valuation per comparison player. Split-season rows are
// merged first; a malformed history has no estimate.
func ApproximateSurplus(in PlayerInput, comp CompensationLookup) (float64, bool) {
	if comp == nil {
		return 0, false
	}
	salary, ok := comp.Salary(in.PlayerID, in.Season)
	if !ok {
		return 0, false
	}
	history, err := prepareHistory(in.Seasons, in.Season)
	if err != nil {
		return 0, false
	}
	var score float64
	if len(history.seasons) > 0 && history.seasons[0].Season == in.Season {
		score = ScoreSeason(history.seasons[0]).ImpactScore
	}
	return CalibrateFairValue(score).Value - salary, true
}
