package advisor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/riskfolio/internal/application/advisor"
	"github.com/alejandrodnm/riskfolio/internal/catalog"
	"github.com/alejandrodnm/riskfolio/internal/domain"
)

// --- Mocks ---

type mockStats struct {
	byHorizon map[domain.Horizon]map[string]domain.AssetStat
	err       error
	calls     int
}

func (m *mockStats) LoadStats(_ context.Context, h domain.Horizon) (map[string]domain.AssetStat, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if st, ok := m.byHorizon[h]; ok {
		return st, nil
	}
	return map[string]domain.AssetStat{}, nil
}

type mockBacktests struct {
	series domain.BacktestSeries
	err    error
}

func (m *mockBacktests) LoadBacktest(context.Context, domain.RiskProfile, domain.Horizon) (domain.BacktestSeries, error) {
	return m.series, m.err
}

func newAdvisor(t *testing.T, strict bool, stats *mockStats, bt *mockBacktests) *advisor.Advisor {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	if stats == nil {
		stats = &mockStats{}
	}
	if bt == nil {
		bt = &mockBacktests{}
	}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return advisor.New(advisor.Config{
		StrictScoring: strict,
		Now:           func() time.Time { return fixed },
	}, cat, stats, bt)
}

func conservativeShort() domain.Answers {
	return domain.Answers{
		Name:           "Ana",
		Goal:           "asset protection",
		Experience:     "none",
		MarketReaction: "sell to minimize loss",
		RiskTolerance:  "risk-averse",
		Horizon:        domain.HorizonShort,
	}
}

// --- Recommend ---

func TestRecommend_EndToEndConservativeShort(t *testing.T) {
	stats := &mockStats{byHorizon: map[domain.Horizon]map[string]domain.AssetStat{
		domain.HorizonShort: {
			"Equity":       {ExpectedReturn: 0.08, Volatility: 0.15},
			"Fixed Income": {ExpectedReturn: 0.03, Volatility: 0.05},
		},
	}}
	a := newAdvisor(t, true, stats, nil)

	rec, err := a.Recommend(context.Background(), conservativeShort())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, rec.Status)
	assert.Equal(t, 4, rec.Score)
	assert.Equal(t, domain.RiskConservative, rec.Profile)
	assert.Equal(t, "Conservative", rec.ProfileLabel())
	assert.Equal(t, "6 months", rec.HorizonLabel())
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), rec.CreatedAt)

	require.NotNil(t, rec.Portfolio)
	p := rec.Portfolio
	assert.Equal(t, domain.Allocation{
		{Ticker: "Equity", Weight: 10},
		{Ticker: "Fixed Income", Weight: 90},
	}, p.Allocation)
	assert.True(t, p.StatsAvailable)
	// 10·0.08/100 + 90·0.03/100
	assert.InDelta(t, 0.035, p.ExpectedReturn, 1e-12)
	// 10·0.15/100 + 90·0.05/100
	assert.InDelta(t, 0.06, p.Volatility, 1e-12)
	assert.Empty(t, p.Warnings)
	assert.True(t, p.WeightCheck.OK)
	require.Len(t, p.Rows, 2)
	assert.True(t, p.Rows[0].HasStats)
	assert.NotEmpty(t, p.Rows[0].Description)
}

func TestRecommend_ProfilesFollowScore(t *testing.T) {
	tests := []struct {
		name    string
		answers domain.Answers
		score   int
		profile domain.RiskProfile
	}{
		{
			"neutral",
			domain.Answers{Goal: "stable income", Experience: "beginner", MarketReaction: "wait and see", RiskTolerance: "some risk", Horizon: domain.HorizonLong},
			8, domain.RiskNeutral,
		},
		{
			"aggressive",
			domain.Answers{Goal: "high return", Experience: "experienced", MarketReaction: "buy more", RiskTolerance: "high risk", Horizon: domain.HorizonLong},
			12, domain.RiskAggressive,
		},
		{
			"boundary 9",
			domain.Answers{Goal: "high return", Experience: "experienced", MarketReaction: "sell to minimize loss", RiskTolerance: "some risk", Horizon: domain.HorizonShort},
			9, domain.RiskAggressive,
		},
	}
	a := newAdvisor(t, true, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := a.Recommend(context.Background(), tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.score, rec.Score)
			assert.Equal(t, tt.profile, rec.Profile)
		})
	}
}

func TestRecommend_IncompleteSkipsDownstream(t *testing.T) {
	stats := &mockStats{}
	a := newAdvisor(t, true, stats, nil)

	ans := conservativeShort()
	ans.RiskTolerance = ""
	ans.Horizon = domain.HorizonUnknown

	rec, err := a.Recommend(context.Background(), ans)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIncomplete, rec.Status)
	assert.Equal(t, []string{"risk_tolerance", "horizon"}, rec.Missing)
	assert.Equal(t, "?", rec.ProfileLabel())
	assert.Equal(t, "not selected", rec.HorizonLabel())
	assert.Nil(t, rec.Portfolio)
	assert.Zero(t, stats.calls)
}

func TestRecommend_StrictRejectsUnknownValue(t *testing.T) {
	a := newAdvisor(t, true, nil, nil)
	ans := conservativeShort()
	ans.Goal = "get rich quick"

	_, err := a.Recommend(context.Background(), ans)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "goal", verr.Field)
}

func TestRecommend_PermissiveScoresUnknownAsZero(t *testing.T) {
	a := newAdvisor(t, false, nil, nil)
	ans := conservativeShort()
	ans.Goal = "get rich quick"

	rec, err := a.Recommend(context.Background(), ans)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Score)
	assert.Equal(t, domain.RiskConservative, rec.Profile)
}

func TestRecommend_StatsUnavailable(t *testing.T) {
	a := newAdvisor(t, true, &mockStats{}, nil)

	rec, err := a.Recommend(context.Background(), conservativeShort())
	require.NoError(t, err)
	p := rec.Portfolio
	require.NotNil(t, p)
	assert.False(t, p.StatsAvailable)
	assert.Zero(t, p.ExpectedReturn)
	assert.Empty(t, p.Warnings)
	assert.Contains(t, p.Notices, advisor.NoticeStatsUnavailable)
	assert.Len(t, p.Rows, 2)
}

func TestRecommend_MalformedStatsAbort(t *testing.T) {
	a := newAdvisor(t, true, &mockStats{err: domain.ErrMalformedData}, nil)

	rec, err := a.Recommend(context.Background(), conservativeShort())
	assert.ErrorIs(t, err, domain.ErrMalformedData)
	assert.Nil(t, rec.Portfolio)
}

// --- Portfolio ---

func TestPortfolio_MissingStatWarnsOnce(t *testing.T) {
	stats := &mockStats{byHorizon: map[domain.Horizon]map[string]domain.AssetStat{
		domain.HorizonLong: {
			"SPY":  {ExpectedReturn: 0.09, Volatility: 0.16},
			"GLD":  {ExpectedReturn: 0.05, Volatility: 0.14},
			"SPTL": {ExpectedReturn: 0.03, Volatility: 0.12},
			"PAVE": {ExpectedReturn: 0.10, Volatility: 0.22},
		},
	}}
	a := newAdvisor(t, true, stats, nil)

	p, err := a.Portfolio(context.Background(), domain.RiskConservative, domain.HorizonLong)
	require.NoError(t, err)
	assert.Equal(t, []domain.MissingStat{{Ticker: "VNQ"}}, p.Warnings)

	want := (33*0.09 + 42*0.05 + 5.5*0.10 + 19*0.03) / 100
	assert.InDelta(t, want, p.ExpectedReturn, 1e-12)
	for _, row := range p.Rows {
		if row.Ticker == "VNQ" {
			assert.False(t, row.HasStats)
		}
	}
	// 99.8 cae dentro de la tolerancia del catálogo
	assert.True(t, p.WeightCheck.OK)
	assert.InDelta(t, 99.8, p.WeightCheck.Total, 1e-9)
}

func TestPortfolio_UnknownKeyUsesDefault(t *testing.T) {
	a := newAdvisor(t, true, nil, nil)

	p, err := a.Portfolio(context.Background(), domain.RiskUnknown, domain.HorizonShort)
	require.NoError(t, err)
	assert.Equal(t, []string{"Equity", "Fixed Income"}, p.Allocation.Tickers())
	assert.Contains(t, p.Notices, advisor.NoticeDefaultPortfolio)
}

// --- Backtest ---

func TestBacktest_Metrics(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2023, 1, day, 0, 0, 0, 0, time.UTC) }
	bt := &mockBacktests{series: domain.BacktestSeries{
		{Date: d(1), NAV: 100, MDD: 0},
		{Date: d(2), NAV: 90, MDD: -0.10},
		{Date: d(3), NAV: 110, MDD: -0.10},
	}}
	a := newAdvisor(t, true, nil, bt)

	r, err := a.Backtest(context.Background(), domain.RiskNeutral, domain.HorizonLong)
	require.NoError(t, err)
	assert.True(t, r.Available)
	assert.Equal(t, 3, r.Points)
	assert.InDelta(t, 0.10, r.SimpleReturn, 1e-12)
	assert.True(t, r.HasLogReturn)
	assert.InDelta(t, 0.0953101798, r.LogReturn, 1e-9)
	assert.InDelta(t, -0.10, r.MaxDrawdown, 1e-12)
	assert.Equal(t, d(1), r.Start)
	assert.Equal(t, d(3), r.End)
	assert.True(t, r.HasVolatility)
}

func TestBacktest_Unavailable(t *testing.T) {
	a := newAdvisor(t, true, nil, &mockBacktests{series: domain.BacktestSeries{}})

	r, err := a.Backtest(context.Background(), domain.RiskAggressive, domain.HorizonShort)
	require.NoError(t, err)
	assert.False(t, r.Available)
	assert.NotEmpty(t, r.Notice)
	assert.Zero(t, r.Points)
}

func TestBacktest_MalformedPropagates(t *testing.T) {
	a := newAdvisor(t, true, nil, &mockBacktests{err: domain.ErrMalformedData})

	_, err := a.Backtest(context.Background(), domain.RiskAggressive, domain.HorizonShort)
	assert.ErrorIs(t, err, domain.ErrMalformedData)
}
