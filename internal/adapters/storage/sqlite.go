package storage

// sqlite.go — estadísticas y backtests en un único archivo SQLite.
//
// Estrategia:
//   - `asset_stats`: una fila por (horizon, asset). Siempre en fracciones.
//   - `backtest_points`: una fila por (risk, horizon, date). Fecha como TEXT ISO.
//   - En modo servicio la base solo se lee. Las escrituras vienen de Import,
//     que reemplaza el contenido de cada clave dentro de una transacción.
//   - Sin filas para una clave = "no disponible", igual que un CSV ausente.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/riskfolio/internal/domain"
	"github.com/alejandrodnm/riskfolio/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
-- Estadísticas por activo y horizonte (fracciones: 0.08 = 8%)
CREATE TABLE IF NOT EXISTS asset_stats (
    horizon         TEXT NOT NULL,
    asset           TEXT NOT NULL,
    expected_return REAL NOT NULL,
    volatility      REAL NOT NULL,
    PRIMARY KEY (horizon, asset)
);

-- Curvas de backtest por cartera modelo
CREATE TABLE IF NOT EXISTS backtest_points (
    risk    TEXT NOT NULL,
    horizon TEXT NOT NULL,
    date    TEXT NOT NULL,
    nav     REAL NOT NULL,
    mdd     REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (risk, horizon, date)
);

CREATE INDEX IF NOT EXISTS idx_bt_key ON backtest_points(risk, horizon, date);
`

const dateLayout = "2006-01-02"

// SQLiteStore implementa ports.StatsProvider y ports.BacktestProvider usando
// SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer; además ":memory:" es por conexión
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// LoadStats devuelve las estadísticas del horizonte. Sin filas → mapa vacío.
func (s *SQLiteStore) LoadStats(ctx context.Context, horizon domain.Horizon) (map[string]domain.AssetStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT asset, expected_return, volatility FROM asset_stats WHERE horizon = ? ORDER BY asset`,
		string(horizon),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadStats: query: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]domain.AssetStat)
	for rows.Next() {
		var (
			asset   string
			er, vol sql.NullFloat64
		)
		if err := rows.Scan(&asset, &er, &vol); err != nil {
			return nil, fmt.Errorf("storage.LoadStats: %w: scan: %v", domain.ErrMalformedData, err)
		}
		if !er.Valid || !vol.Valid {
			return nil, fmt.Errorf("storage.LoadStats: %w: null statistic for %q", domain.ErrMalformedData, asset)
		}
		if !finite(er.Float64, vol.Float64) {
			return nil, fmt.Errorf("storage.LoadStats: %w: non-finite statistic for %q", domain.ErrMalformedData, asset)
		}
		stats[asset] = domain.AssetStat{ExpectedReturn: er.Float64, Volatility: vol.Float64}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadStats: %w", err)
	}

	if len(stats) == 0 {
		slog.Warn("asset statistics unavailable", "horizon", horizon, "db", s.path)
	}
	return stats, nil
}

// LoadBacktest devuelve la curva de (risk, horizon) ordenada por fecha.
// Sin filas → serie vacía.
func (s *SQLiteStore) LoadBacktest(ctx context.Context, risk domain.RiskProfile, horizon domain.Horizon) (domain.BacktestSeries, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, nav, mdd FROM backtest_points WHERE risk = ? AND horizon = ? ORDER BY date ASC`,
		string(risk), string(horizon),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadBacktest: query: %w", err)
	}
	defer rows.Close()

	series := domain.BacktestSeries{}
	for rows.Next() {
		var (
			raw      string
			nav, mdd float64
		)
		if err := rows.Scan(&raw, &nav, &mdd); err != nil {
			return nil, fmt.Errorf("storage.LoadBacktest: %w: scan: %v", domain.ErrMalformedData, err)
		}
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("storage.LoadBacktest: %w: date %q", domain.ErrMalformedData, raw)
		}
		if !finite(nav, mdd) {
			return nil, fmt.Errorf("storage.LoadBacktest: %w: non-finite value on %s", domain.ErrMalformedData, raw)
		}
		if mdd > 0 {
			return nil, fmt.Errorf("storage.LoadBacktest: %w: positive drawdown %v on %s", domain.ErrMalformedData, mdd, raw)
		}
		series = append(series, domain.BacktestPoint{Date: date, NAV: nav, MDD: mdd})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadBacktest: %w", err)
	}

	if series.Empty() {
		slog.Warn("backtest unavailable", "risk", risk, "horizon", horizon, "db", s.path)
	}
	return series, nil
}

// SaveStats reemplaza las estadísticas del horizonte.
func (s *SQLiteStore) SaveStats(ctx context.Context, horizon domain.Horizon, stats map[string]domain.AssetStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveStats: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_stats WHERE horizon = ?`, string(horizon)); err != nil {
		return fmt.Errorf("storage.SaveStats: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO asset_stats (horizon, asset, expected_return, volatility) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveStats: prepare: %w", err)
	}
	defer stmt.Close()

	for asset, st := range stats {
		if _, err := stmt.ExecContext(ctx, string(horizon), asset, st.ExpectedReturn, st.Volatility); err != nil {
			return fmt.Errorf("storage.SaveStats: insert %q: %w", asset, err)
		}
	}
	return tx.Commit()
}

// SaveBacktest reemplaza la curva de (risk, horizon).
func (s *SQLiteStore) SaveBacktest(ctx context.Context, risk domain.RiskProfile, horizon domain.Horizon, series domain.BacktestSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM backtest_points WHERE risk = ? AND horizon = ?`, string(risk), string(horizon),
	); err != nil {
		return fmt.Errorf("storage.SaveBacktest: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO backtest_points (risk, horizon, date, nav, mdd) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range series {
		if _, err := stmt.ExecContext(ctx,
			string(risk), string(horizon), p.Date.Format(dateLayout), p.NAV, p.MDD,
		); err != nil {
			return fmt.Errorf("storage.SaveBacktest: insert %s: %w", p.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// ImportSummary resume una importación.
type ImportSummary struct {
	StatsRows    int
	BacktestRows int
	Skipped      []string // claves sin datos en origen
}

// Import copia todas las claves conocidas desde otras fuentes (típicamente CSV).
// Las claves vacías en origen no se tocan. Un dato malformado aborta la importación.
func (s *SQLiteStore) Import(ctx context.Context, stats ports.StatsProvider, backtests ports.BacktestProvider) (ImportSummary, error) {
	var sum ImportSummary

	for _, h := range domain.Horizons() {
		st, err := stats.LoadStats(ctx, h)
		if err != nil {
			return sum, fmt.Errorf("storage.Import: stats %s: %w", h, err)
		}
		if len(st) == 0 {
			sum.Skipped = append(sum.Skipped, "stats/"+string(h))
			continue
		}
		if err := s.SaveStats(ctx, h, st); err != nil {
			return sum, fmt.Errorf("storage.Import: %w", err)
		}
		sum.StatsRows += len(st)
	}

	for _, r := range domain.RiskProfiles() {
		for _, h := range domain.Horizons() {
			series, err := backtests.LoadBacktest(ctx, r, h)
			if err != nil {
				return sum, fmt.Errorf("storage.Import: backtest %s/%s: %w", r, h, err)
			}
			if series.Empty() {
				sum.Skipped = append(sum.Skipped, "backtest/"+string(r)+"/"+string(h))
				continue
			}
			if err := s.SaveBacktest(ctx, r, h, series); err != nil {
				return sum, fmt.Errorf("storage.Import: %w", err)
			}
			sum.BacktestRows += len(series)
		}
	}

	slog.Info("import finished",
		"db", s.path,
		"stats_rows", sum.StatsRows,
		"backtest_rows", sum.BacktestRows,
		"skipped", len(sum.Skipped),
	)
	return sum, nil
}

// finite devuelve false si algún valor es NaN o ±Inf.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
