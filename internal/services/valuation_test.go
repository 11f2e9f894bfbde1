package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/hoops-valuation/internal/compensation"
	"github.com/stitts-dev/hoops-valuation/internal/providers"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/logger"
)

const testSeason = "2024-25"

// MockStatsProvider for testing
type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) GetPlayerHistory(ctx context.Context, playerID, season string) (*providers.PlayerHistory, error) {
	args := m.Called(ctx, playerID, season)
	h, _ := args.Get(0).(*providers.PlayerHistory)
	return h, args.Error(1)
}

// MockPlayerLister for testing
type MockPlayerLister struct {
	mock.Mock
}

func (m *MockPlayerLister) ListPlayers(ctx context.Context, season string) ([]string, error) {
	args := m.Called(ctx, season)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// MockCacheService for testing
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// memoryCache round-trips values through JSON like the redis cache does.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type salaryLoader struct {
	mu      sync.Mutex
	records []compensation.Record
}

func (l *salaryLoader) Load(ctx context.Context) ([]compensation.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]compensation.Record(nil), l.records...), nil
}

func (l *salaryLoader) set(records []compensation.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seasonLine(id string, scale float64) valuation.SeasonStats {
	return valuation.SeasonStats{
		Season:                 id,
		GamesPlayed:            70,
		Minutes:                2400,
		Points:                 1750 * scale,
		Assists:                420 * scale,
		Rebounds:               520 * scale,
		Steals:                 80 * scale,
		Blocks:                 40 * scale,
		Turnovers:              200,
		FieldGoalsMade:         620 * scale,
		FieldGoalsAttempted:    1300,
		ThreePointersMade:      160 * scale,
		ThreePointersAttempted: 450,
		FreeThrowsMade:         350 * scale,
		FreeThrowsAttempted:    400,
	}
}

func history(id string, scale float64) *providers.PlayerHistory {
	return &providers.PlayerHistory{
		PlayerID: id,
		Age:      27,
		Seasons: []valuation.SeasonStats{
			seasonLine("2024-25", scale),
			seasonLine("2023-24", scale),
		},
	}
}

func defaultSalaries() []compensation.Record {
	return []compensation.Record{
		{PlayerID: "p1", Season: testSeason, Salary: 30_000_000},
		{PlayerID: "p2", Season: testSeason, Salary: 10_000_000},
		{PlayerID: "p3", Season: testSeason, Salary: 45_000_000},
	}
}

type fixture struct {
	service  *ValuationService
	provider *MockStatsProvider
	lister   *MockPlayerLister
	loader   *salaryLoader
	cache    *memoryCache
}

func newFixture(t *testing.T, mode PopulationMode) *fixture {
	t.Helper()
	logger := quietLogger()
	loader := &salaryLoader{records: defaultSalaries()}
	f := &fixture{
		provider: &MockStatsProvider{},
		lister:   &MockPlayerLister{},
		loader:   loader,
		cache:    newMemoryCache(),
	}
	f.service = NewValuationService(
		valuation.NewEngine(2),
		compensation.NewIndex(loader, logger),
		f.provider,
		f.lister,
		NewCircuitBreakerService(3, time.Minute, logger),
		f.cache,
		ValuationServiceConfig{ProviderName: "database", CacheTTL: time.Minute, PopulationMode: mode},
		logger,
	)
	return f
}

func (f *fixture) expectRoster() {
	f.lister.On("ListPlayers", mock.Anything, testSeason).Return([]string{"p1", "p2", "p3"}, nil)
	f.provider.On("GetPlayerHistory", mock.Anything, "p1", testSeason).Return(history("p1", 1.0), nil)
	f.provider.On("GetPlayerHistory", mock.Anything, "p2", testSeason).Return(history("p2", 0.8), nil)
	f.provider.On("GetPlayerHistory", mock.Anything, "p3", testSeason).Return(history("p3", 1.1), nil)
}

func TestValuatePlayer_FetchesRanksAndCaches(t *testing.T) {
	f := newFixture(t, PopulationExact)
	f.expectRoster()
	ctx := context.Background()

	result, cached, err := f.service.ValuatePlayer(ctx, "p1", testSeason, 0)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "p1", result.PlayerID)
	assert.Equal(t, 27, result.Age)
	require.NotNil(t, result.Compensation)
	assert.Equal(t, 30_000_000.0, result.Compensation.ActualValue)
	assert.Equal(t, 2, result.Explanation.StockIndex.PopulationSize, "own surplus is excluded")
	assert.GreaterOrEqual(t, result.StockIndex, 0.0)
	assert.LessOrEqual(t, result.StockIndex, 100.0)

	again, cached, err := f.service.ValuatePlayer(ctx, "p1", testSeason, 0)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, result.FairValue, again.FairValue)
	assert.Equal(t, result.StockIndex, again.StockIndex)

	f.provider.AssertNumberOfCalls(t, "GetPlayerHistory", 3)
	f.lister.AssertNumberOfCalls(t, "ListPlayers", 1)

	var pop SeasonPopulation
	require.NoError(t, f.cache.Get(ctx, PopulationCacheKey(testSeason), &pop))
	assert.Equal(t, PopulationExact, pop.Mode)
	assert.Len(t, pop.Surpluses, 3)
}

func TestValuatePlayer_AgeOverride(t *testing.T) {
	f := newFixture(t, PopulationExact)
	f.expectRoster()

	result, _, err := f.service.ValuatePlayer(context.Background(), "p1", testSeason, 22)
	require.NoError(t, err)
	assert.Equal(t, 22, result.Age)
	assert.Greater(t, result.AgeFactor, 1.0)
}

func TestValuatePlayer_InvalidArguments(t *testing.T) {
	f := newFixture(t, PopulationExact)
	ctx := context.Background()

	_, _, err := f.service.ValuatePlayer(ctx, "", testSeason, 0)
	assert.ErrorIs(t, err, valuation.ErrMissingPlayerID)

	_, _, err = f.service.ValuatePlayer(ctx, "p1", "2024", 0)
	assert.ErrorIs(t, err, valuation.ErrInvalidSeason)

	_, _, err = f.service.ValuatePlayer(ctx, "p1", testSeason, -3)
	assert.ErrorIs(t, err, valuation.ErrInvalidAge)

	f.provider.AssertNotCalled(t, "GetPlayerHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestValuatePlayer_NotFound(t *testing.T) {
	f := newFixture(t, PopulationExact)
	f.provider.On("GetPlayerHistory", mock.Anything, "ghost", testSeason).Return(nil, providers.ErrPlayerNotFound)

	_, _, err := f.service.ValuatePlayer(context.Background(), "ghost", testSeason, 0)
	assert.ErrorIs(t, err, providers.ErrPlayerNotFound)
}

func TestValuatePlayer_BreakerOpens(t *testing.T) {
	f := newFixture(t, PopulationExact)
	f.provider.On("GetPlayerHistory", mock.Anything, "p1", testSeason).Return(nil, errors.New("connection refused"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := f.service.ValuatePlayer(ctx, "p1", testSeason, 0)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
	}

	_, _, err := f.service.ValuatePlayer(ctx, "p1", testSeason, 0)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	f.provider.AssertNumberOfCalls(t, "GetPlayerHistory", 3)
}

func TestValuatePlayer_ReloadInvalidatesCachedResults(t *testing.T) {
	f := newFixture(t, PopulationExact)
	f.expectRoster()
	ctx := context.Background()

	_, _, err := f.service.ValuatePlayer(ctx, "p1", testSeason, 0)
	require.NoError(t, err)

	salaries := defaultSalaries()
	salaries[0].Salary = 5_000_000
	f.loader.set(salaries)
	_, err = f.service.ReloadCompensation(ctx)
	require.NoError(t, err)

	result, cached, err := f.service.ValuatePlayer(ctx, "p1", testSeason, 0)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 5_000_000.0, result.Compensation.ActualValue)
}

func TestValuatePlayer_NoSalary(t *testing.T) {
	f := newFixture(t, PopulationExact)
	f.expectRoster()
	f.provider.On("GetPlayerHistory", mock.Anything, "p9", testSeason).Return(history("p9", 1.0), nil)

	result, _, err := f.service.ValuatePlayer(context.Background(), "p9", testSeason, 0)
	require.NoError(t, err)
	assert.Nil(t, result.Compensation)
	assert.Equal(t, valuation.NeutralStockIndex, result.StockIndex)
}

func TestValuatePlayer_NoSalaryLogsPlayerContext(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	prev := logger.Logger
	logger.Logger = log
	t.Cleanup(func() { logger.Logger = prev })

	f := newFixture(t, PopulationExact)
	f.expectRoster()
	f.provider.On("GetPlayerHistory", mock.Anything, "p9", testSeason).Return(history("p9", 1.0), nil)

	_, _, err := f.service.ValuatePlayer(context.Background(), "p9", testSeason, 0)
	require.NoError(t, err)

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "No salary on record, stock index is neutral" {
			found = true
			assert.Equal(t, "p9", entry["player_id"])
			assert.Equal(t, testSeason, entry["season"])
			assert.Equal(t, "valuation_service", entry["component"])
		}
	}
	assert.True(t, found, "fallback is logged")
}

func TestValuatePlayer_NoRoster(t *testing.T) {
	logger := quietLogger()
	provider := &MockStatsProvider{}
	provider.On("GetPlayerHistory", mock.Anything, "p1", testSeason).Return(history("p1", 1.0), nil)

	service := NewValuationService(
		valuation.NewEngine(1),
		compensation.NewIndex(&salaryLoader{records: defaultSalaries()}, logger),
		provider,
		nil,
		nil,
		nil,
		ValuationServiceConfig{},
		logger,
	)

	result, cached, err := service.ValuatePlayer(context.Background(), "p1", testSeason, 0)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 0, result.Explanation.StockIndex.PopulationSize)
	assert.Equal(t, valuation.NeutralPercentile, result.Explanation.StockIndex.Percentile)

	_, err = service.ValuateSeason(context.Background(), testSeason)
	assert.ErrorIs(t, err, ErrNoRoster)
}

func TestValuatePlayer_ApproximatePopulation(t *testing.T) {
	f := newFixture(t, PopulationApproximate)
	f.expectRoster()
	ctx := context.Background()

	result, _, err := f.service.ValuatePlayer(ctx, "p1", testSeason, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Explanation.StockIndex.PopulationSize)

	var pop SeasonPopulation
	require.NoError(t, f.cache.Get(ctx, PopulationCacheKey(testSeason), &pop))
	assert.Equal(t, PopulationApproximate, pop.Mode)

	approx, ok := valuation.ApproximateSurplus(history("p2", 0.8).Input(testSeason), mustTable(t, defaultSalaries()))
	require.True(t, ok)
	assert.InDelta(t, approx, pop.Surpluses["p2"], 1e-6)
}

func TestValuatePlayer_CacheFailuresAreTolerated(t *testing.T) {
	logger := quietLogger()
	provider := &MockStatsProvider{}
	provider.On("GetPlayerHistory", mock.Anything, "p1", testSeason).Return(history("p1", 1.0), nil)
	cache := &MockCacheService{}
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	service := NewValuationService(
		valuation.NewEngine(1),
		compensation.NewIndex(&salaryLoader{records: defaultSalaries()}, logger),
		provider,
		nil,
		nil,
		cache,
		ValuationServiceConfig{CacheTTL: time.Minute},
		logger,
	)

	result, cached, err := service.ValuatePlayer(context.Background(), "p1", testSeason, 0)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, result)
	cache.AssertCalled(t, "Set", mock.Anything, ValuationCacheKey("p1", testSeason, 0), mock.Anything, time.Minute)
}

func TestValuateSeason(t *testing.T) {
	f := newFixture(t, PopulationExact)
	ctx := context.Background()

	bad := history("bad", 1.0)
	bad.Seasons[0].Points = -10
	f.lister.On("ListPlayers", mock.Anything, testSeason).Return([]string{"p1", "p2", "bad", "ghost"}, nil)
	f.provider.On("GetPlayerHistory", mock.Anything, "p1", testSeason).Return(history("p1", 1.0), nil)
	f.provider.On("GetPlayerHistory", mock.Anything, "p2", testSeason).Return(history("p2", 0.8), nil)
	f.provider.On("GetPlayerHistory", mock.Anything, "bad", testSeason).Return(bad, nil)
	f.provider.On("GetPlayerHistory", mock.Anything, "ghost", testSeason).Return(nil, providers.ErrPlayerNotFound)

	out, err := f.service.ValuateSeason(ctx, testSeason)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "p1", out.Results[0].PlayerID)
	assert.Equal(t, "p2", out.Results[1].PlayerID)
	require.Len(t, out.Skipped, 2)
	assert.Equal(t, "bad", out.Skipped[0].PlayerID)
	assert.Equal(t, "ghost", out.Skipped[1].PlayerID)

	for _, r := range out.Results {
		assert.Equal(t, 1, r.Explanation.StockIndex.PopulationSize)
	}

	var pop SeasonPopulation
	require.NoError(t, f.cache.Get(ctx, PopulationCacheKey(testSeason), &pop))
	assert.Len(t, pop.Surpluses, 2)

	result, cached, err := f.service.ValuatePlayer(ctx, "p2", testSeason, 0)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, out.Results[1].StockIndex, result.StockIndex)
}

func TestValuateInputs(t *testing.T) {
	f := newFixture(t, PopulationExact)

	results, err := f.service.ValuateInputs(context.Background(), []valuation.PlayerInput{
		history("p1", 1.0).Input(testSeason),
		history("p2", 0.8).Input(testSeason),
		history("p3", 1.1).Input(testSeason),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, 2, r.Explanation.StockIndex.PopulationSize)
	}
	f.provider.AssertNotCalled(t, "GetPlayerHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestValuateInput(t *testing.T) {
	f := newFixture(t, PopulationExact)

	result, err := f.service.ValuateInput(context.Background(), history("p1", 1.0).Input(testSeason), []float64{-1e7, 0, 1e7})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Explanation.StockIndex.PopulationSize)

	_, err = f.service.ValuateInput(context.Background(), valuation.PlayerInput{Season: testSeason}, nil)
	assert.ErrorIs(t, err, valuation.ErrMissingPlayerID)
}

func TestCompensationLookup(t *testing.T) {
	f := newFixture(t, PopulationExact)
	ctx := context.Background()

	rec, ok, err := f.service.Compensation(ctx, "p2", testSeason)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(10_000_000), rec.Salary)

	_, ok, err = f.service.Compensation(ctx, "p2", "2023-24")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeasonPopulationExcluding(t *testing.T) {
	pop := &SeasonPopulation{Surpluses: map[string]float64{"a": 1, "b": 2, "c": 3}}
	assert.Equal(t, []float64{1, 3}, pop.Excluding("b").Values())
	assert.Equal(t, 3, pop.Excluding("z").Len())

	var empty *SeasonPopulation
	assert.Equal(t, 0, empty.Excluding("a").Len())
}

func mustTable(t *testing.T, records []compensation.Record) *compensation.Table {
	t.Helper()
	table, err := compensation.NewTable(records)
	require.NoError(t, err)
	return table
}
