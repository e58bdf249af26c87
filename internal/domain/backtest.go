package domain

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// BacktestPoint es una observación de la curva de backtest.
// NAV está normalizado a una base; MDD es el drawdown acumulado (<= 0).
type BacktestPoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
	MDD  float64   `json:"mdd"`
}

// BacktestSeries es una serie ordenada cronológicamente (ascendente).
// Una serie vacía significa "no disponible".
type BacktestSeries []BacktestPoint

// Empty devuelve true si no hay datos.
func (s BacktestSeries) Empty() bool { return len(s) == 0 }

// SortByDate ordena la serie por fecha ascendente (estable para fechas repetidas).
func (s BacktestSeries) SortByDate() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// NAVs devuelve la columna NAV.
func (s BacktestSeries) NAVs() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.NAV
	}
	return out
}

// SimpleCumulativeReturn devuelve (last.NAV - first.NAV) / first.NAV.
// ok=false si la serie está vacía o el primer NAV es 0.
func SimpleCumulativeReturn(s BacktestSeries) (float64, bool) {
	if s.Empty() || s[0].NAV == 0 {
		return 0, false
	}
	first, last := s[0].NAV, s[len(s)-1].NAV
	return (last - first) / first, true
}

// LogCumulativeReturn devuelve ln(last.NAV / first.NAV).
// ok=false si la serie está vacía o algún extremo no es positivo.
func LogCumulativeReturn(s BacktestSeries) (float64, bool) {
	if s.Empty() {
		return 0, false
	}
	first, last := s[0].NAV, s[len(s)-1].NAV
	if first <= 0 || last <= 0 {
		return 0, false
	}
	return math.Log(last / first), true
}

// MaxDrawdown devuelve el mínimo de la columna MDD (el peor drawdown, <= 0).
func MaxDrawdown(s BacktestSeries) (float64, bool) {
	if s.Empty() {
		return 0, false
	}
	worst := s[0].MDD
	for _, p := range s[1:] {
		if p.MDD < worst {
			worst = p.MDD
		}
	}
	return worst, true
}

// RunningDrawdown calcula, para cada punto, la caída desde el máximo previo:
// nav/peak - 1 (0 en máximos, negativo en caídas).
func RunningDrawdown(navs []float64) []float64 {
	out := make([]float64, len(navs))
	if len(navs) == 0 {
		return out
	}
	peak := navs[0]
	for i, v := range navs {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = v/peak - 1
		}
	}
	return out
}

// FillDrawdown rellena MDD a partir de NAV. Se usa cuando la fuente no trae la columna.
func (s BacktestSeries) FillDrawdown() {
	dd := RunningDrawdown(s.NAVs())
	worst := 0.0
	for i := range s {
		if dd[i] < worst {
			worst = dd[i]
		}
		s[i].MDD = worst
	}
}

// PeriodReturns devuelve los retornos simples entre observaciones consecutivas.
func PeriodReturns(navs []float64) []float64 {
	if len(navs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(navs)-1)
	for i := 1; i < len(navs); i++ {
		if navs[i-1] == 0 {
			continue
		}
		out = append(out, navs[i]/navs[i-1]-1)
	}
	return out
}

// AnnualizedVolatility estima la volatilidad anual de la serie: desviación
// estándar de los retornos por periodo × sqrt(periodos por año). La frecuencia se
// infiere del espaciado medio entre fechas.
func AnnualizedVolatility(s BacktestSeries) (float64, bool) {
	returns := PeriodReturns(s.NAVs())
	if len(returns) < 2 {
		return 0, false
	}
	span := s[len(s)-1].Date.Sub(s[0].Date).Hours() / 24
	if span <= 0 {
		return 0, false
	}
	avgDays := span / float64(len(s)-1)
	periodsPerYear := 365.25 / avgDays
	return stat.StdDev(returns, nil) * math.Sqrt(periodsPerYear), true
}

// BacktestReport es lo que se presenta en la página de backtest.
type BacktestReport struct {
	Risk      RiskProfile    `json:"risk"`
	Horizon   Horizon        `json:"horizon"`
	Available bool           `json:"available"`
	Notice    string         `json:"notice,omitempty"`
	Series    BacktestSeries `json:"series,omitempty"`

	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
	Points int       `json:"points"`

	SimpleReturn         float64 `json:"simple_return"`
	LogReturn            float64 `json:"log_return"`
	HasLogReturn         bool    `json:"has_log_return"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	HasVolatility        bool    `json:"has_volatility"`
}

// NewBacktestReport calcula las métricas derivadas. Con una serie vacía devuelve
// un reporte no disponible sin tocar índices.
func NewBacktestReport(risk RiskProfile, horizon Horizon, s BacktestSeries) BacktestReport {
	r := BacktestReport{Risk: risk, Horizon: horizon, Points: len(s)}
	if s.Empty() {
		r.Notice = "backtest data is not available for this portfolio"
		return r
	}

	r.Available = true
	r.Series = s
	r.Start = s[0].Date
	r.End = s[len(s)-1].Date
	r.SimpleReturn, _ = SimpleCumulativeReturn(s)
	r.LogReturn, r.HasLogReturn = LogCumulativeReturn(s)
	r.MaxDrawdown, _ = MaxDrawdown(s)
	r.AnnualizedVolatility, r.HasVolatility = AnnualizedVolatility(s)
	return r
}
