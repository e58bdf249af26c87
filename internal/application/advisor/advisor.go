// Package advisor orquesta el pipeline cuestionario → perfil → cartera modelo.
//
// Flujo de Recommend:
//
//	respuestas incompletas → estado "incomplete", sin cálculo
//	valores fuera de dominio (modo estricto) → *domain.ValidationError
//	score → perfil → cartera del catálogo → estadísticas → resumen → vista
//
// Los datos malformados abortan la petición: nunca se devuelven cifras parciales.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/riskfolio/internal/catalog"
	"github.com/alejandrodnm/riskfolio/internal/domain"
	"github.com/alejandrodnm/riskfolio/internal/ports"
)

// Avisos al usuario.
const (
	NoticeStatsUnavailable = "asset statistics are not available for this horizon; summary figures are omitted"
	NoticeDefaultPortfolio = "no model portfolio for this profile and horizon; showing the default allocation"
	NoticeWeightMismatch   = "model weights do not add up to 100%"
)

// Config controla el comportamiento del Advisor.
type Config struct {
	// StrictScoring: respuestas no vacías fuera de dominio son error.
	StrictScoring bool
	// WeightTolerance para el aviso de pesos; 0 = la del catálogo.
	WeightTolerance float64
	// Now permite fijar el reloj en tests. nil = time.Now.
	Now func() time.Time
}

// Advisor es stateless respecto al usuario: todo el estado viaja en los argumentos.
type Advisor struct {
	cfg       Config
	catalog   *catalog.Catalog
	stats     ports.StatsProvider
	backtests ports.BacktestProvider
}

// New crea un Advisor con sus dependencias inyectadas.
func New(cfg Config, cat *catalog.Catalog, stats ports.StatsProvider, backtests ports.BacktestProvider) *Advisor {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.WeightTolerance <= 0 {
		cfg.WeightTolerance = cat.Tolerance()
	}
	return &Advisor{cfg: cfg, catalog: cat, stats: stats, backtests: backtests}
}

// Catalog devuelve el catálogo en uso.
func (a *Advisor) Catalog() *catalog.Catalog { return a.catalog }

// Recommend ejecuta el pipeline completo para unas respuestas.
func (a *Advisor) Recommend(ctx context.Context, answers domain.Answers) (domain.Recommendation, error) {
	rec := domain.Recommendation{
		ID:        uuid.NewString(),
		CreatedAt: a.cfg.Now().UTC(),
		Answers:   answers,
	}

	if missing := answers.Missing(); len(missing) > 0 {
		rec.Status = domain.StatusIncomplete
		rec.Missing = missing
		slog.Debug("survey incomplete", "id", rec.ID, "missing", missing)
		return rec, nil
	}

	if a.cfg.StrictScoring {
		if err := answers.Validate(); err != nil {
			return domain.Recommendation{}, fmt.Errorf("advisor.Recommend: %w", err)
		}
	}

	rec.Status = domain.StatusComplete
	rec.Score = answers.Score()
	rec.Profile = domain.Classify(rec.Score)

	view, err := a.Portfolio(ctx, rec.Profile, answers.Horizon)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("advisor.Recommend: %w", err)
	}
	rec.Portfolio = &view

	slog.Info("recommendation computed",
		"id", rec.ID,
		"score", rec.Score,
		"profile", rec.Profile,
		"horizon", answers.Horizon,
		"expected_return", view.ExpectedReturn,
		"volatility", view.Volatility,
	)
	return rec, nil
}

// Portfolio construye la vista de la cartera modelo para (risk, horizon).
func (a *Advisor) Portfolio(ctx context.Context, risk domain.RiskProfile, horizon domain.Horizon) (domain.PortfolioView, error) {
	alloc := a.catalog.Lookup(risk, horizon)
	view := domain.PortfolioView{
		Risk:        risk,
		Horizon:     horizon,
		Allocation:  alloc,
		WeightCheck: alloc.CheckTotal(a.cfg.WeightTolerance),
	}
	if !a.catalog.Has(risk, horizon) {
		view.Notices = append(view.Notices, NoticeDefaultPortfolio)
	}
	if !view.WeightCheck.OK {
		view.Notices = append(view.Notices, NoticeWeightMismatch)
		slog.Warn("model weights off target", "risk", risk, "horizon", horizon, "check", view.WeightCheck.String())
	}

	stats, err := a.stats.LoadStats(ctx, horizon)
	if err != nil {
		return domain.PortfolioView{}, fmt.Errorf("advisor.Portfolio: load stats: %w", err)
	}

	var summary domain.Summary
	if len(stats) == 0 {
		view.Notices = append(view.Notices, NoticeStatsUnavailable)
		// Sin estadísticas solo se listan los pesos
		summary = domain.Summarize(alloc, nil)
		summary.Warnings = nil
	} else {
		view.StatsAvailable = true
		summary = domain.Summarize(alloc, stats)
		view.ExpectedReturn = summary.ExpectedReturn
		view.Volatility = summary.Volatility
		view.Warnings = summary.Warnings
		for _, w := range summary.Warnings {
			slog.Warn("asset without statistics", "ticker", w.Ticker, "horizon", horizon)
		}
	}

	view.Rows = make([]domain.PortfolioRow, len(summary.Rows))
	for i, row := range summary.Rows {
		asset := a.catalog.Asset(row.Ticker)
		view.Rows[i] = domain.PortfolioRow{
			SummaryRow:  row,
			Description: asset.Description,
			Link:        asset.Link,
		}
	}
	return view, nil
}

// Backtest carga la curva de la cartera y calcula sus métricas.
// Sin datos devuelve un reporte no disponible y nil.
func (a *Advisor) Backtest(ctx context.Context, risk domain.RiskProfile, horizon domain.Horizon) (domain.BacktestReport, error) {
	series, err := a.backtests.LoadBacktest(ctx, risk, horizon)
	if err != nil {
		return domain.BacktestReport{}, fmt.Errorf("advisor.Backtest: %w", err)
	}
	report := domain.NewBacktestReport(risk, horizon, series)
	if report.Available {
		slog.Debug("backtest computed",
			"risk", risk,
			"horizon", horizon,
			"points", report.Points,
			"simple_return", report.SimpleReturn,
			"max_drawdown", report.MaxDrawdown,
		)
	}
	return report, nil
}
