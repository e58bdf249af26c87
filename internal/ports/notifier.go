package ports

import (
	"context"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

// Notifier presenta los resultados al usuario.
type Notifier interface {
	// NotifyRecommendation muestra el resultado del cuestionario y, si está
	// completo, la cartera recomendada.
	NotifyRecommendation(ctx context.Context, rec domain.Recommendation) error

	// NotifyPortfolio muestra una cartera modelo elegida directamente por clave.
	NotifyPortfolio(ctx context.Context, view domain.PortfolioView) error

	// NotifyBacktest muestra el reporte de backtest (o el aviso de no disponible).
	NotifyBacktest(ctx context.Context, report domain.BacktestReport) error
}
