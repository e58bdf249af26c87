package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/riskfolio/internal/adapters/cache"
	"github.com/alejandrodnm/riskfolio/internal/domain"
)

type countingSource struct {
	mu          sync.Mutex
	statsCalls  int
	seriesCalls int
	stats       map[string]domain.AssetStat
	series      domain.BacktestSeries
	err         error
}

func (s *countingSource) LoadStats(context.Context, domain.Horizon) (map[string]domain.AssetStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]domain.AssetStat, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out, nil
}

func (s *countingSource) LoadBacktest(context.Context, domain.RiskProfile, domain.Horizon) (domain.BacktestSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seriesCalls++
	if s.err != nil {
		return nil, s.err
	}
	return append(domain.BacktestSeries{}, s.series...), nil
}

func TestCache_StatsLoadedOnce(t *testing.T) {
	src := &countingSource{stats: map[string]domain.AssetStat{"SPY": {ExpectedReturn: 0.1}}}
	c := cache.New(src, src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		st, err := c.LoadStats(ctx, domain.HorizonLong)
		require.NoError(t, err)
		assert.Len(t, st, 1)
	}
	assert.Equal(t, 1, src.statsCalls)

	hits, misses := c.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)

	// Otro horizonte es otra clave
	_, err := c.LoadStats(ctx, domain.HorizonShort)
	require.NoError(t, err)
	assert.Equal(t, 2, src.statsCalls)
}

func TestCache_ReturnsCopies(t *testing.T) {
	src := &countingSource{
		stats:  map[string]domain.AssetStat{"SPY": {ExpectedReturn: 0.1}},
		series: domain.BacktestSeries{{Date: time.Now(), NAV: 1}},
	}
	c := cache.New(src, src)
	ctx := context.Background()

	st, _ := c.LoadStats(ctx, domain.HorizonLong)
	delete(st, "SPY")
	st, _ = c.LoadStats(ctx, domain.HorizonLong)
	assert.Contains(t, st, "SPY")

	s, _ := c.LoadBacktest(ctx, domain.RiskNeutral, domain.HorizonLong)
	s[0].NAV = 99
	s, _ = c.LoadBacktest(ctx, domain.RiskNeutral, domain.HorizonLong)
	assert.Equal(t, 1.0, s[0].NAV)
}

func TestCache_ErrorsAndEmptyAreNotCached(t *testing.T) {
	src := &countingSource{err: domain.ErrMalformedData}
	c := cache.New(src, src)
	ctx := context.Background()

	_, err := c.LoadBacktest(ctx, domain.RiskNeutral, domain.HorizonLong)
	assert.ErrorIs(t, err, domain.ErrMalformedData)

	// Tras corregir el origen, la siguiente lectura lo ve
	src.err = nil
	s, err := c.LoadBacktest(ctx, domain.RiskNeutral, domain.HorizonLong)
	require.NoError(t, err)
	assert.True(t, s.Empty())

	src.series = domain.BacktestSeries{{NAV: 1}}
	s, err = c.LoadBacktest(ctx, domain.RiskNeutral, domain.HorizonLong)
	require.NoError(t, err)
	assert.Len(t, s, 1)
	assert.Equal(t, 3, src.seriesCalls)
}

func TestCache_Invalidate(t *testing.T) {
	src := &countingSource{stats: map[string]domain.AssetStat{"SPY": {}}}
	c := cache.New(src, src)
	ctx := context.Background()

	_, _ = c.LoadStats(ctx, domain.HorizonLong)
	c.Invalidate()
	_, _ = c.LoadStats(ctx, domain.HorizonLong)
	assert.Equal(t, 2, src.statsCalls)
}

func TestCache_ConcurrentReaders(t *testing.T) {
	src := &countingSource{series: domain.BacktestSeries{{NAV: 1}, {NAV: 2}}}
	c := cache.New(src, src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.LoadBacktest(context.Background(), domain.RiskAggressive, domain.HorizonShort)
			assert.NoError(t, err)
			assert.Len(t, s, 2)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, src.seriesCalls, 1)
}

type keyedSource struct {
	countingSource
	badKey domain.RiskProfile
}

func (s *keyedSource) LoadBacktest(ctx context.Context, r domain.RiskProfile, h domain.Horizon) (domain.BacktestSeries, error) {
	if r == s.badKey {
		return nil, domain.ErrMalformedData
	}
	if h == domain.HorizonShort {
		return domain.BacktestSeries{}, nil
	}
	return s.countingSource.LoadBacktest(ctx, r, h)
}

func TestWarm_LoadsEveryKey(t *testing.T) {
	src := &keyedSource{countingSource: countingSource{
		stats:  map[string]domain.AssetStat{"SPY": {}},
		series: domain.BacktestSeries{{NAV: 1}},
	}}
	c := cache.New(src, src)

	res, err := c.Warm(context.Background(), 3)
	require.NoError(t, err)
	// 2 horizontes de stats + 3 backtests largos; los 3 cortos vienen vacíos
	assert.Equal(t, 5, res.Loaded)
	assert.Equal(t, 3, res.Unavailable)

	// Lo precargado ya no va al origen
	_, err = c.LoadBacktest(context.Background(), domain.RiskNeutral, domain.HorizonLong)
	require.NoError(t, err)
	assert.Equal(t, 3, src.seriesCalls)
}

func TestWarm_MalformedFails(t *testing.T) {
	src := &keyedSource{
		countingSource: countingSource{series: domain.BacktestSeries{{NAV: 1}}},
		badKey:         domain.RiskAggressive,
	}
	c := cache.New(src, src)

	_, err := c.Warm(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedData)
	assert.Contains(t, err.Error(), "backtest/aggressive/long")
}
