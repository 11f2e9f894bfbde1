package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/hoops-valuation/internal/compensation"
	"github.com/stitts-dev/hoops-valuation/internal/providers"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/logger"
)

var (
	ErrUpstreamUnavailable = errors.New("stats provider unavailable")
	ErrNoRoster            = errors.New("season roster not available for this stats provider")
	ErrHistoryFetch        = errors.New("failed to fetch player history")
)

type PopulationMode string

const (
	PopulationExact       PopulationMode = "exact"
	PopulationApproximate PopulationMode = "approximate"
)

// PlayerLister enumerates the players who appeared in a season.
type PlayerLister interface {
	ListPlayers(ctx context.Context, season string) ([]string, error)
}

type ValuationServiceConfig struct {
	ProviderName   string
	CacheTTL       time.Duration
	PopulationMode PopulationMode
	Workers        int
}

// SeasonPopulation is the set of surplus values a season's stock indexes
// are ranked against, keyed by player id.
type SeasonPopulation struct {
	Season              string             `json:"season"`
	Mode                PopulationMode     `json:"mode"`
	CompensationBuiltAt time.Time          `json:"compensation_built_at"`
	Surpluses           map[string]float64 `json:"surpluses"`
}

// Excluding returns the population without the given player's own entry.
func (p *SeasonPopulation) Excluding(playerID string) valuation.Population {
	if p == nil {
		return valuation.NewPopulation(nil)
	}
	values := make([]float64, 0, len(p.Surpluses))
	for id, v := range p.Surpluses {
		if id != playerID {
			values = append(values, v)
		}
	}
	return valuation.NewPopulation(values)
}

// SkippedPlayer is a player left out of a season run.
type SkippedPlayer struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

// SeasonValuation is the outcome of valuing every stored player of a season.
type SeasonValuation struct {
	Season  string                       `json:"season"`
	Results []*valuation.ValuationResult `json:"results"`
	Skipped []SkippedPlayer              `json:"skipped,omitempty"`
}

type cachedValuation struct {
	CompensationBuiltAt time.Time                  `json:"compensation_built_at"`
	Result              *valuation.ValuationResult `json:"result"`
}

// ValuationService feeds fetched histories and the current compensation
// snapshot into the engine. Cached valuations and populations are tied to
// the compensation table they were computed against and are ignored once
// the table is reloaded.
type ValuationService struct {
	engine   *valuation.Engine
	index    *compensation.Index
	provider providers.StatsProvider
	lister   PlayerLister
	breaker  *CircuitBreakerService
	cache    Cache
	config   ValuationServiceConfig
	logger   *logrus.Logger
}

// NewValuationService wires the service. lister and cache may be nil.
func NewValuationService(
	engine *valuation.Engine,
	index *compensation.Index,
	provider providers.StatsProvider,
	lister PlayerLister,
	breaker *CircuitBreakerService,
	cache Cache,
	config ValuationServiceConfig,
	logger *logrus.Logger,
) *ValuationService {
	if config.ProviderName == "" {
		config.ProviderName = "stats"
	}
	if config.PopulationMode == "" {
		config.PopulationMode = PopulationExact
	}
	if config.Workers <= 0 {
		config.Workers = 8
	}
	return &ValuationService{
		engine:   engine,
		index:    index,
		provider: provider,
		lister:   lister,
		breaker:  breaker,
		cache:    cache,
		config:   config,
		logger:   logger,
	}
}

// ValuatePlayer fetches the player's history and values it as of season.
// A positive age overrides the age carried by the history. The boolean
// reports whether the result came from cache.
func (s *ValuationService) ValuatePlayer(ctx context.Context, playerID, season string, age int) (*valuation.ValuationResult, bool, error) {
	if playerID == "" {
		return nil, false, valuation.ErrMissingPlayerID
	}
	if err := valuation.ValidateSeasonID(season); err != nil {
		return nil, false, err
	}
	if age < 0 {
		return nil, false, fmt.Errorf("age = %d: %w", age, valuation.ErrInvalidAge)
	}

	table, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}

	key := ValuationCacheKey(playerID, season, age)
	var cached cachedValuation
	if s.cacheGet(ctx, key, &cached) && cached.Result != nil && cached.CompensationBuiltAt.Equal(table.BuiltAt()) {
		return cached.Result, true, nil
	}

	history, err := s.fetchHistory(ctx, playerID, season)
	if err != nil {
		return nil, false, err
	}
	in := history.Input(season)
	if age > 0 {
		in.Age = age
	}

	result, err := s.engine.Assess(in, table)
	if err != nil {
		return nil, false, err
	}

	pop, err := s.population(ctx, season, table)
	if err != nil {
		log := s.logger.WithFields(logrus.Fields{
			"component": "valuation_service",
			"season":    season,
		}).WithError(err)
		if errors.Is(err, ErrNoRoster) {
			log.Debug("No season roster, ranking against an empty population")
		} else {
			log.Warn("Population unavailable, ranking against an empty population")
		}
		pop = nil
	}
	s.engine.Rank(result, pop.Excluding(playerID))
	s.logFallbacks(result)

	s.cacheSet(ctx, key, cachedValuation{CompensationBuiltAt: table.BuiltAt(), Result: result})
	return result, false, nil
}

// ValuateInput values a caller-supplied history against a caller-supplied
// population. Nothing is fetched or cached.
func (s *ValuationService) ValuateInput(ctx context.Context, in valuation.PlayerInput, population []float64) (*valuation.ValuationResult, error) {
	table, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.Valuate(in, table, population)
	if err != nil {
		return nil, err
	}
	s.logFallbacks(result)
	return result, nil
}

// ValuateInputs values caller-supplied histories as one population.
func (s *ValuationService) ValuateInputs(ctx context.Context, inputs []valuation.PlayerInput) ([]*valuation.ValuationResult, error) {
	table, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.ValuateBatch(ctx, inputs, table)
}

// ValuateSeason values every player the lister knows for season, caches
// each result and caches the resulting exact population.
func (s *ValuationService) ValuateSeason(ctx context.Context, season string) (*SeasonValuation, error) {
	if err := valuation.ValidateSeasonID(season); err != nil {
		return nil, err
	}
	table, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.valuateSeason(ctx, season, table)
	if err != nil {
		return nil, err
	}

	pop := &SeasonPopulation{
		Season:              season,
		Mode:                PopulationExact,
		CompensationBuiltAt: table.BuiltAt(),
		Surpluses:           make(map[string]float64),
	}
	for _, r := range out.Results {
		if v, ok := r.SurplusValue(); ok {
			pop.Surpluses[r.PlayerID] = v
		}
		s.cacheSet(ctx, ValuationCacheKey(r.PlayerID, season, 0), cachedValuation{CompensationBuiltAt: table.BuiltAt(), Result: r})
	}
	s.cacheSet(ctx, PopulationCacheKey(season), pop)

	s.logger.WithFields(logrus.Fields{
		"component":  "valuation_service",
		"season":     season,
		"valued":     len(out.Results),
		"skipped":    len(out.Skipped),
		"population": len(pop.Surpluses),
		"duration":   time.Since(start),
	}).Info("Season valuation completed")
	return out, nil
}

// Compensation returns the salary record for a player-season.
func (s *ValuationService) Compensation(ctx context.Context, playerID, season string) (compensation.Record, bool, error) {
	table, err := s.index.Snapshot(ctx)
	if err != nil {
		return compensation.Record{}, false, err
	}
	rec, ok := table.Lookup(playerID, season)
	return rec, ok, nil
}

// ReloadCompensation rebuilds the compensation table.
func (s *ValuationService) ReloadCompensation(ctx context.Context) (*compensation.Table, error) {
	return s.index.Reload(ctx)
}

func (s *ValuationService) valuateSeason(ctx context.Context, season string, table *compensation.Table) (*SeasonValuation, error) {
	if s.lister == nil {
		return nil, ErrNoRoster
	}
	histories, skipped, err := s.fetchSeason(ctx, season)
	if err != nil {
		return nil, err
	}

	inputs := make([]valuation.PlayerInput, 0, len(histories))
	for _, h := range histories {
		inputs = append(inputs, h.Input(season))
	}
	results, err := s.engine.ValuateBatch(ctx, inputs, table)
	if err != nil {
		return nil, err
	}
	return &SeasonValuation{Season: season, Results: results, Skipped: skipped}, nil
}

// fetchSeason fetches every listed player's history. Players whose history
// cannot be fetched or fails validation are skipped; an open breaker aborts
// the run.
func (s *ValuationService) fetchSeason(ctx context.Context, season string) ([]*providers.PlayerHistory, []SkippedPlayer, error) {
	ids, err := s.lister.ListPlayers(ctx, season)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu        sync.Mutex
		histories []*providers.PlayerHistory
		skipped   []SkippedPlayer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			h, err := s.fetchHistory(gctx, id, season)
			if err == nil {
				err = validateHistory(h)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				histories = append(histories, h)
			case errors.Is(err, ErrUpstreamUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				skipped = append(skipped, SkippedPlayer{PlayerID: id, Reason: err.Error()})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(histories, func(i, j int) bool { return histories[i].PlayerID < histories[j].PlayerID })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].PlayerID < skipped[j].PlayerID })
	return histories, skipped, nil
}

// population returns the season's comparison population, building it when
// no usable cached copy exists. A cached exact population is always
// acceptable.
func (s *ValuationService) population(ctx context.Context, season string, table *compensation.Table) (*SeasonPopulation, error) {
	key := PopulationCacheKey(season)
	var cached SeasonPopulation
	if s.cacheGet(ctx, key, &cached) &&
		cached.CompensationBuiltAt.Equal(table.BuiltAt()) &&
		(cached.Mode == PopulationExact || cached.Mode == s.config.PopulationMode) {
		return &cached, nil
	}

	if s.lister == nil {
		return nil, ErrNoRoster
	}

	pop := &SeasonPopulation{
		Season:              season,
		Mode:                s.config.PopulationMode,
		CompensationBuiltAt: table.BuiltAt(),
		Surpluses:           make(map[string]float64),
	}
	switch s.config.PopulationMode {
	case PopulationApproximate:
		histories, _, err := s.fetchSeason(ctx, season)
		if err != nil {
			return nil, err
		}
		for _, h := range histories {
			if v, ok := valuation.ApproximateSurplus(h.Input(season), table); ok {
				pop.Surpluses[h.PlayerID] = v
			}
		}
	default:
		out, err := s.valuateSeason(ctx, season, table)
		if err != nil {
			return nil, err
		}
		for _, r := range out.Results {
			if v, ok := r.SurplusValue(); ok {
				pop.Surpluses[r.PlayerID] = v
			}
		}
	}

	s.cacheSet(ctx, key, pop)
	s.logger.WithFields(logrus.Fields{
		"component": "valuation_service",
		"season":    season,
		"mode":      pop.Mode,
		"size":      len(pop.Surpluses),
	}).Info("Season population built")
	return pop, nil
}

func (s *ValuationService) fetchHistory(ctx context.Context, playerID, season string) (*providers.PlayerHistory, error) {
	key := HistoryCacheKey(s.config.ProviderName, playerID, season)
	var cached providers.PlayerHistory
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	fetch := func() (interface{}, error) {
		return s.provider.GetPlayerHistory(ctx, playerID, season)
	}
	var (
		res interface{}
		err error
	)
	if s.breaker != nil {
		res, err = s.breaker.Execute(s.config.ProviderName, fetch)
	} else {
		res, err = fetch()
	}
	if err != nil {
		if IsOpenError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("%w for %s: %w", ErrHistoryFetch, playerID, err)
	}

	history := res.(*providers.PlayerHistory)
	s.cacheSet(ctx, key, history)
	return history, nil
}

func (s *ValuationService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		s.logger.WithFields(logrus.Fields{
			"component": "valuation_service",
			"key":       key,
		}).WithError(err).Warn("Cache read failed")
	}
	return err == nil
}

func (s *ValuationService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		s.logger.WithFields(logrus.Fields{
			"component": "valuation_service",
			"key":       key,
		}).WithError(err).Warn("Cache write failed")
	}
}

func (s *ValuationService) logFallbacks(r *valuation.ValuationResult) {
	log := logger.WithPlayerContext(r.PlayerID, r.Season).WithField("component", "valuation_service")
	if r.Compensation == nil {
		log.Debug("No salary on record, stock index is neutral")
	}
	if r.Trajectory == valuation.TrajectoryUnknown {
		log.Debug("Fewer than two qualifying seasons, trajectory unknown")
	}
	if r.Compensation != nil && r.Explanation.StockIndex.PopulationSize == 0 {
		log.Debug("Empty comparison population, using neutral percentile")
	}
}

func validateHistory(h *providers.PlayerHistory) error {
	for _, st := range h.Seasons {
		if err := st.Validate(); err != nil {
			return err
		}
	}
	return nil
}
