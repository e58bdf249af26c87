package csvfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/riskfolio/internal/adapters/csvfile"
	"github.com/alejandrodnm/riskfolio/internal/domain"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func statsSource(path string, percent bool) *csvfile.Source {
	return csvfile.New(csvfile.Config{
		StatsPaths:   map[domain.Horizon]string{domain.HorizonLong: path},
		PercentUnits: percent,
	})
}

// --- LoadStats ---

func TestLoadStats_Fraction(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "stats.csv", "Asset,ExpectedReturn,Volatility\nSPY,0.09,0.16\nGLD, 0.05 ,0.14\n\n")

	stats, err := statsSource(path, false).LoadStats(context.Background(), domain.HorizonLong)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.InDelta(t, 0.09, stats["SPY"].ExpectedReturn, 1e-12)
	assert.InDelta(t, 0.14, stats["GLD"].Volatility, 1e-12)
}

func TestLoadStats_PercentConvertedAtEdge(t *testing.T) {
	dir := t.TempDir()
	// Columnas en otro orden, cabecera con espacios y BOM de Excel
	path := write(t, dir, "stats.csv", "\ufeffVolatility,Ticker,Expected Return\n16,SPY,9\n")

	stats, err := statsSource(path, true).LoadStats(context.Background(), domain.HorizonLong)
	require.NoError(t, err)
	assert.InDelta(t, 0.09, stats["SPY"].ExpectedReturn, 1e-12)
	assert.InDelta(t, 0.16, stats["SPY"].Volatility, 1e-12)
}

func TestLoadStats_MissingFileIsUnavailable(t *testing.T) {
	stats, err := statsSource(filepath.Join(t.TempDir(), "nope.csv"), false).
		LoadStats(context.Background(), domain.HorizonLong)
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.NotNil(t, stats)

	// Horizonte sin ruta configurada
	stats, err = statsSource("", false).LoadStats(context.Background(), domain.HorizonShort)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestLoadStats_DirectoryIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	stats, err := statsSource(dir, false).LoadStats(context.Background(), domain.HorizonLong)
	require.NoError(t, err)
	assert.Empty(t, stats)

	s, err := backtestSource(dir).LoadBacktest(context.Background(), domain.RiskNeutral, domain.HorizonShort)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestLoadStats_NonFiniteReportsLocation(t *testing.T) {
	path := write(t, t.TempDir(), "bad.csv", "Asset,ExpectedReturn,Volatility\nSPY,NaN,0.16\n")
	_, err := statsSource(path, false).LoadStats(context.Background(), domain.HorizonLong)

	var merr *csvfile.MalformedError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 2, merr.Line)
	assert.Equal(t, "expectedreturn", merr.Column)
	assert.Equal(t, "not a finite number", merr.Reason)
}

func TestLoadStats_EmptyFileIsUnavailable(t *testing.T) {
	path := write(t, t.TempDir(), "empty.csv", "")
	stats, err := statsSource(path, false).LoadStats(context.Background(), domain.HorizonLong)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestLoadStats_Malformed(t *testing.T) {
	cases := map[string]string{
		"not a number":   "Asset,ExpectedReturn,Volatility\nSPY,abc,0.1\n",
		"missing column": "Asset,ExpectedReturn\nSPY,0.1\n",
		"duplicate":      "Asset,ExpectedReturn,Volatility\nSPY,0.1,0.2\nSPY,0.1,0.2\n",
		"empty asset":    "Asset,ExpectedReturn,Volatility\n,0.1,0.2\n",
		"nan return":     "Asset,ExpectedReturn,Volatility\nSPY,NaN,0.16\n",
		"inf volatility": "Asset,ExpectedReturn,Volatility\nGLD,0.05,Inf\n",
		"infinity":       "Asset,ExpectedReturn,Volatility\nGLD,-Infinity,0.1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := write(t, t.TempDir(), "bad.csv", content)
			_, err := statsSource(path, false).LoadStats(context.Background(), domain.HorizonLong)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedData)
		})
	}
}

func TestLoadStats_MalformedReportsLocation(t *testing.T) {
	path := write(t, t.TempDir(), "bad.csv", "Asset,ExpectedReturn,Volatility\nSPY,0.1,0.2\nGLD,0.05,n/a\n")
	_, err := statsSource(path, false).LoadStats(context.Background(), domain.HorizonLong)

	var merr *csvfile.MalformedError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 3, merr.Line)
	assert.Equal(t, "volatility", merr.Column)
	assert.Equal(t, "n/a", merr.Value)
}

// --- LoadBacktest ---

func backtestSource(path string) *csvfile.Source {
	return csvfile.New(csvfile.Config{
		BacktestPaths: map[string]string{
			csvfile.BacktestKey(domain.RiskNeutral, domain.HorizonShort): path,
		},
	})
}

func TestLoadBacktest_SortedAscending(t *testing.T) {
	path := write(t, t.TempDir(), "bt.csv",
		"Date,NAV,MDD\n2023-01-03,1.10,0\n2023-01-02,1.00,0\n2023/01/04,0.99,-0.1\n")

	s, err := backtestSource(path).LoadBacktest(context.Background(), domain.RiskNeutral, domain.HorizonShort)
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), s[0].Date)
	assert.Equal(t, []float64{1.00, 1.10, 0.99}, s.NAVs())
	assert.Equal(t, -0.1, s[2].MDD)
}

func TestLoadBacktest_WithoutMDDColumnRecomputes(t *testing.T) {
	path := write(t, t.TempDir(), "bt.csv", "date,nav\n2023-01-02,100\n2023-01-03,110\n2023-01-04,99\n2023-01-05,120\n")

	s, err := backtestSource(path).LoadBacktest(context.Background(), domain.RiskNeutral, domain.HorizonShort)
	require.NoError(t, err)
	mdd, ok := domain.MaxDrawdown(s)
	require.True(t, ok)
	assert.InDelta(t, -0.1, mdd, 1e-12)
}

func TestLoadBacktest_MissingFileIsEmpty(t *testing.T) {
	s, err := backtestSource(filepath.Join(t.TempDir(), "nope.csv")).
		LoadBacktest(context.Background(), domain.RiskNeutral, domain.HorizonShort)
	require.NoError(t, err)
	assert.True(t, s.Empty())

	// Downstream: las métricas se saltan sin indexar la serie vacía
	_, ok := domain.SimpleCumulativeReturn(s)
	assert.False(t, ok)

	// Clave sin ruta
	s, err = backtestSource("x").LoadBacktest(context.Background(), domain.RiskAggressive, domain.HorizonLong)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestLoadBacktest_Malformed(t *testing.T) {
	cases := map[string]string{
		"bad date":     "Date,NAV,MDD\n01-02-2023,1,0\n",
		"bad nav":      "Date,NAV,MDD\n2023-01-02,one,0\n",
		"positive mdd": "Date,NAV,MDD\n2023-01-02,1,0.2\n",
		"no nav":       "Date,MDD\n2023-01-02,0\n",
		"nan mdd":      "Date,NAV,MDD\n2023-01-02,1,NaN\n",
		"inf nav":      "Date,NAV,MDD\n2023-01-02,+Inf,0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := write(t, t.TempDir(), "bt.csv", content)
			_, err := backtestSource(path).LoadBacktest(context.Background(), domain.RiskNeutral, domain.HorizonShort)
			assert.ErrorIs(t, err, domain.ErrMalformedData)
		})
	}
}
