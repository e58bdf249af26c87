// Package cache memoriza en memoria las lecturas de estadísticas y backtests.
//
// Los datos de origen son estáticos durante la vida del proceso, así que cada
// clave se lee una sola vez. Solo se guardan cargas con datos: un error o un
// resultado vacío ("no disponible") se vuelve a consultar en la siguiente
// petición.
package cache

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/alejandrodnm/riskfolio/internal/domain"
	"github.com/alejandrodnm/riskfolio/internal/ports"
)

type backtestKey struct {
	risk    domain.RiskProfile
	horizon domain.Horizon
}

// Source envuelve un StatsProvider y un BacktestProvider.
type Source struct {
	stats     ports.StatsProvider
	backtests ports.BacktestProvider

	mu          sync.Mutex
	statsByH    map[domain.Horizon]map[string]domain.AssetStat
	seriesByKey map[backtestKey]domain.BacktestSeries
	hits        int
	misses      int
}

// New crea el decorador. Cualquiera de los dos providers puede ser nil si solo se
// usa la otra mitad.
func New(stats ports.StatsProvider, backtests ports.BacktestProvider) *Source {
	return &Source{
		stats:       stats,
		backtests:   backtests,
		statsByH:    make(map[domain.Horizon]map[string]domain.AssetStat),
		seriesByKey: make(map[backtestKey]domain.BacktestSeries),
	}
}

// LoadStats implementa ports.StatsProvider. Devuelve siempre una copia.
func (c *Source) LoadStats(ctx context.Context, horizon domain.Horizon) (map[string]domain.AssetStat, error) {
	c.mu.Lock()
	if st, ok := c.statsByH[horizon]; ok {
		c.hits++
		c.mu.Unlock()
		return maps.Clone(st), nil
	}
	c.misses++
	c.mu.Unlock()

	st, err := c.stats.LoadStats(ctx, horizon)
	if err != nil {
		return nil, err
	}
	if len(st) > 0 {
		c.mu.Lock()
		c.statsByH[horizon] = maps.Clone(st)
		c.mu.Unlock()
		slog.Debug("stats cached", "horizon", horizon, "assets", len(st))
	}
	return st, nil
}

// LoadBacktest implementa ports.BacktestProvider. Devuelve siempre una copia.
func (c *Source) LoadBacktest(ctx context.Context, risk domain.RiskProfile, horizon domain.Horizon) (domain.BacktestSeries, error) {
	key := backtestKey{risk: risk, horizon: horizon}

	c.mu.Lock()
	if s, ok := c.seriesByKey[key]; ok {
		c.hits++
		c.mu.Unlock()
		return slices.Clone(s), nil
	}
	c.misses++
	c.mu.Unlock()

	s, err := c.backtests.LoadBacktest(ctx, risk, horizon)
	if err != nil {
		return nil, err
	}
	if !s.Empty() {
		c.mu.Lock()
		c.seriesByKey[key] = slices.Clone(s)
		c.mu.Unlock()
		slog.Debug("backtest cached", "risk", risk, "horizon", horizon, "points", len(s))
	}
	return s, nil
}

// Invalidate descarta todo lo memorizado.
func (c *Source) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.statsByH)
	clear(c.seriesByKey)
}

// Stats devuelve los contadores de aciertos y fallos.
func (c *Source) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
