package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/riskfolio/internal/adapters/notify"
	"github.com/alejandrodnm/riskfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecommendation() domain.Recommendation {
	alloc := domain.Allocation{{Ticker: "SPY", Weight: 60}, {Ticker: "VNQ", Weight: 40}}
	return domain.Recommendation{
		ID:        "rec-1",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Answers: domain.Answers{
			Name:    "Ana",
			Horizon: domain.HorizonLong,
		},
		Status:  domain.StatusComplete,
		Score:   7,
		Profile: domain.RiskNeutral,
		Portfolio: &domain.PortfolioView{
			Risk:       domain.RiskNeutral,
			Horizon:    domain.HorizonLong,
			Allocation: alloc,
			Rows: []domain.PortfolioRow{
				{
					SummaryRow:  domain.SummaryRow{Ticker: "SPY", Weight: 60, ExpectedReturn: 0.09, Volatility: 0.16, HasStats: true},
					Description: "SPDR S&P 500 ETF Trust tracks the S&P 500 index of large US companies",
					Link:        "https://example.com/spy",
				},
				{
					SummaryRow:  domain.SummaryRow{Ticker: "VNQ", Weight: 40},
					Description: "Real estate",
				},
			},
			StatsAvailable: true,
			ExpectedReturn: 0.054,
			Volatility:     0.096,
			Warnings:       []domain.MissingStat{{Ticker: "VNQ"}},
			WeightCheck:    alloc.CheckTotal(0.5),
		},
	}
}

func TestConsole_Recommendation(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.NotifyRecommendation(context.Background(), makeRecommendation())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "Neutral (score 7 of 12)")
	assert.Contains(t, out, "2 years")
	assert.Contains(t, out, "SPY")
	assert.Contains(t, out, "60.0%")
	assert.Contains(t, out, "5.40%")
	assert.Contains(t, out, "9.60%")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "no statistics for VNQ")
	assert.Contains(t, out, "https://example.com/spy")
	// La descripción larga se trunca
	assert.Contains(t, out, "...")
}

func TestConsole_IncompleteShowsMissing(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	rec := domain.Recommendation{
		Status:  domain.StatusIncomplete,
		Missing: []string{"goal", "horizon"},
	}
	require.NoError(t, n.NotifyRecommendation(context.Background(), rec))

	out := buf.String()
	assert.Contains(t, out, "not entered")
	assert.Contains(t, out, "Profile:   ?")
	assert.Contains(t, out, "not selected")
	assert.Contains(t, out, "Missing: goal, horizon")
	assert.NotContains(t, out, "ALLOCATION")
}

func TestConsole_StatsUnavailableOmitsSummaryFigures(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	rec := makeRecommendation()
	rec.Portfolio.StatsAvailable = false
	rec.Portfolio.Warnings = nil
	rec.Portfolio.Notices = []string{"asset statistics are not available"}
	require.NoError(t, n.NotifyRecommendation(context.Background(), rec))

	out := buf.String()
	assert.NotContains(t, out, "Expected return:")
	assert.Contains(t, out, "asset statistics are not available")
}

func TestConsole_Backtest(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	series := make(domain.BacktestSeries, 0, 40)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		series = append(series, domain.BacktestPoint{Date: start.AddDate(0, 0, i), NAV: 1 + float64(i)/100})
	}
	report := domain.NewBacktestReport(domain.RiskAggressive, domain.HorizonShort, series)

	require.NoError(t, n.NotifyBacktest(context.Background(), report))
	out := buf.String()
	assert.Contains(t, out, "BACKTEST: Aggressive / 6 months")
	assert.Contains(t, out, "2023-01-01")
	assert.Contains(t, out, "2023-02-09")
	assert.Contains(t, out, "39.00%")
	// Muestra limitada, no las 40 filas
	assert.Less(t, strings.Count(out, "2023-01-"), 20)
}

func TestConsole_BacktestUnavailable(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	report := domain.NewBacktestReport(domain.RiskNeutral, domain.HorizonLong, nil)
	require.NoError(t, n.NotifyBacktest(context.Background(), report))
	assert.Contains(t, buf.String(), "not available")
}

func TestJSON_Recommendation(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewJSONWriter(&buf)

	require.NoError(t, n.NotifyRecommendation(context.Background(), makeRecommendation()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "rec-1", decoded["id"])
	assert.Equal(t, "neutral", decoded["profile"])
}

func TestRecommendationPDF(t *testing.T) {
	rec := makeRecommendation()
	report := domain.NewBacktestReport(domain.RiskNeutral, domain.HorizonLong, domain.BacktestSeries{
		{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), NAV: 1},
		{Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), NAV: 1.1},
	})

	data, err := notify.RecommendationPDF(rec, &report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	// Sin backtest también funciona
	data, err = notify.RecommendationPDF(rec, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRecommendationPDF_IncompleteRejected(t *testing.T) {
	_, err := notify.RecommendationPDF(domain.Recommendation{Status: domain.StatusIncomplete}, nil)
	assert.ErrorIs(t, err, domain.ErrSurveyIncomplete)
}
