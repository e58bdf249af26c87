package ports

import (
	"context"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

// BacktestProvider carga la curva de backtest de una cartera modelo.
type BacktestProvider interface {
	// LoadBacktest devuelve la serie ordenada por fecha ascendente.
	// Fuente ausente → serie vacía y nil. Datos corruptos → error con
	// domain.ErrMalformedData.
	LoadBacktest(ctx context.Context, risk domain.RiskProfile, horizon domain.Horizon) (domain.BacktestSeries, error)
}
