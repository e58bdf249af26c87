package csvfile

// source.go — estadísticas y backtests desde archivos CSV locales.
//
// Reglas de error:
//   - archivo ausente, ilegible o que no es un archivo regular → resultado vacío,
//     sin error ("no disponible")
//   - celda no numérica o no finita (NaN, Inf), fecha inválida, columna
//     requerida ausente → error fatal que envuelve domain.ErrMalformedData
//
// La conversión de unidades se hace aquí y solo aquí: el dominio siempre recibe
// fracciones.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/riskfolio/internal/domain"
)

// Config indica qué archivo leer para cada clave.
type Config struct {
	// StatsPaths: un archivo por horizonte.
	StatsPaths map[domain.Horizon]string
	// BacktestPaths: clave "<risk>_<horizon>" (ver BacktestKey).
	BacktestPaths map[string]string
	// PercentUnits=true: ExpectedReturn y Volatility vienen en porcentaje (8 = 8%).
	PercentUnits bool
}

// Source implementa ports.StatsProvider y ports.BacktestProvider sobre CSV.
type Source struct {
	cfg Config
}

// New crea un Source con las rutas dadas.
func New(cfg Config) *Source {
	return &Source{cfg: cfg}
}

// BacktestKey es la clave de Config.BacktestPaths.
func BacktestKey(risk domain.RiskProfile, horizon domain.Horizon) string {
	return string(risk) + "_" + string(horizon)
}

// MalformedError describe una celda o cabecera inválida.
type MalformedError struct {
	File   string
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *MalformedError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("%s:%d: column %s: %s (%q)", e.File, e.Line, e.Column, e.Reason, e.Value)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Unwrap permite errors.Is(err, domain.ErrMalformedData).
func (e *MalformedError) Unwrap() error { return domain.ErrMalformedData }

// LoadStats lee el archivo de estadísticas del horizonte.
// Columnas: Asset, ExpectedReturn, Volatility (en cualquier orden).
func (s *Source) LoadStats(_ context.Context, horizon domain.Horizon) (map[string]domain.AssetStat, error) {
	path := s.cfg.StatsPaths[horizon]
	stats := make(map[string]domain.AssetStat)

	tbl, ok, err := readTable(path, []string{"asset", "expectedreturn", "volatility"}, nil)
	if err != nil {
		return nil, fmt.Errorf("csvfile.LoadStats: %w", err)
	}
	if !ok {
		slog.Warn("asset statistics unavailable", "horizon", horizon, "path", path)
		return stats, nil
	}

	scale := 1.0
	if s.cfg.PercentUnits {
		scale = 0.01
	}

	for _, row := range tbl.rows {
		asset := strings.TrimSpace(row.get("asset"))
		if asset == "" {
			return nil, fmt.Errorf("csvfile.LoadStats: %w", tbl.malformed(row, "asset", "", "empty asset"))
		}
		if _, dup := stats[asset]; dup {
			return nil, fmt.Errorf("csvfile.LoadStats: %w", tbl.malformed(row, "asset", asset, "duplicate asset"))
		}
		er, err := tbl.float(row, "expectedreturn")
		if err != nil {
			return nil, fmt.Errorf("csvfile.LoadStats: %w", err)
		}
		vol, err := tbl.float(row, "volatility")
		if err != nil {
			return nil, fmt.Errorf("csvfile.LoadStats: %w", err)
		}
		stats[asset] = domain.AssetStat{ExpectedReturn: er * scale, Volatility: vol * scale}
	}

	slog.Debug("asset statistics loaded", "horizon", horizon, "path", path, "assets", len(stats))
	return stats, nil
}

// dateLayouts son los formatos de fecha aceptados, en orden.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadBacktest lee la curva de backtest de (risk, horizon).
// Columnas: Date, NAV y opcionalmente MDD. Sin MDD se recalcula desde NAV.
func (s *Source) LoadBacktest(_ context.Context, risk domain.RiskProfile, horizon domain.Horizon) (domain.BacktestSeries, error) {
	path := s.cfg.BacktestPaths[BacktestKey(risk, horizon)]

	tbl, ok, err := readTable(path, []string{"date", "nav"}, []string{"mdd"})
	if err != nil {
		return nil, fmt.Errorf("csvfile.LoadBacktest: %w", err)
	}
	if !ok {
		slog.Warn("backtest unavailable", "risk", risk, "horizon", horizon, "path", path)
		return domain.BacktestSeries{}, nil
	}

	_, hasMDD := tbl.cols["mdd"]
	series := make(domain.BacktestSeries, 0, len(tbl.rows))
	for _, row := range tbl.rows {
		raw := strings.TrimSpace(row.get("date"))
		date, ok := parseDate(raw)
		if !ok {
			return nil, fmt.Errorf("csvfile.LoadBacktest: %w", tbl.malformed(row, "date", raw, "unparseable date"))
		}
		nav, err := tbl.float(row, "nav")
		if err != nil {
			return nil, fmt.Errorf("csvfile.LoadBacktest: %w", err)
		}
		p := domain.BacktestPoint{Date: date, NAV: nav}
		if hasMDD {
			mdd, err := tbl.float(row, "mdd")
			if err != nil {
				return nil, fmt.Errorf("csvfile.LoadBacktest: %w", err)
			}
			if mdd > 0 {
				return nil, fmt.Errorf("csvfile.LoadBacktest: %w", tbl.malformed(row, "mdd", row.get("mdd"), "drawdown must be <= 0"))
			}
			p.MDD = mdd
		}
		series = append(series, p)
	}

	series.SortByDate()
	if !hasMDD {
		series.FillDrawdown()
	}

	slog.Debug("backtest loaded", "risk", risk, "horizon", horizon, "path", path, "points", len(series))
	return series, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// --- lectura genérica ---

type record struct {
	line   int
	fields []string
	cols   map[string]int
}

func (r record) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

type table struct {
	path string
	cols map[string]int
	rows []record
}

func (t *table) malformed(r record, col, value, reason string) error {
	return &MalformedError{File: t.path, Line: r.line, Column: col, Value: value, Reason: reason}
}

func (t *table) float(r record, col string) (float64, error) {
	raw := strings.TrimSpace(r.get(col))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, t.malformed(r, col, raw, "not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, t.malformed(r, col, raw, "not a finite number")
	}
	return v, nil
}

// readTable abre path y lo parsea. ok=false cuando el archivo no existe, no es
// un archivo regular, no se puede abrir o está vacío. required son las columnas obligatorias (normalizadas).
func readTable(path string, required, optional []string) (*table, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("data file not readable", "path", path, "err", err)
		return nil, false, nil
	}
	if !info.Mode().IsRegular() {
		slog.Warn("data path is not a regular file", "path", path)
		return nil, false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("data file not readable", "path", path, "err", err)
		return nil, false, nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &MalformedError{File: path, Reason: fmt.Sprintf("read header: %v", err)}
	}

	t := &table{path: path, cols: make(map[string]int)}
	known := make(map[string]bool)
	for _, c := range append(append([]string(nil), required...), optional...) {
		known[c] = true
	}
	for i, h := range header {
		name := normalizeHeader(h)
		if known[name] {
			t.cols[name] = i
		}
	}
	for _, c := range required {
		if _, ok := t.cols[c]; !ok {
			return nil, false, &MalformedError{File: path, Reason: fmt.Sprintf("missing column %q", c)}
		}
	}

	line := 1
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, false, &MalformedError{File: path, Line: line, Reason: err.Error()}
		}
		if blank(fields) {
			continue
		}
		t.rows = append(t.rows, record{line: line, fields: fields, cols: t.cols})
	}
	return t, true, nil
}

// normalizeHeader: "Expected Return" → "expectedreturn", quita BOM y "_".
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	if h == "ticker" {
		return "asset"
	}
	return h
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
