package domain

import "gonum.org/v1/gonum/floats"

// AssetStat son el retorno esperado y la volatilidad de un activo, ambos como
// fracción (0.08 = 8%). La conversión desde porcentaje se hace al cargar los datos.
type AssetStat struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
}

// SummaryRow es una fila de la tabla enriquecida de la cartera.
type SummaryRow struct {
	Ticker         string  `json:"ticker"`
	Weight         float64 `json:"weight"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	HasStats       bool    `json:"has_stats"`
}

// MissingStat es un aviso no fatal: el ticker no tiene estadísticas y aportó 0.
type MissingStat struct {
	Ticker string `json:"ticker"`
}

// Summary es el resultado agregado de Summarize.
type Summary struct {
	ExpectedReturn float64       `json:"expected_return"`
	Volatility     float64       `json:"volatility"`
	Rows           []SummaryRow  `json:"rows"`
	Warnings       []MissingStat `json:"warnings,omitempty"`
}

// Summarize combina una cartera con las estadísticas por activo.
//
//	expectedReturn = Σ weight × stat.ExpectedReturn / 100
//	volatility     = Σ weight × stat.Volatility / 100
//
// Los pesos van en puntos porcentuales y las estadísticas en fracción, así que el
// resultado también es fracción. La volatilidad es una suma ponderada de
// volatilidades individuales, sin términos de correlación: sobreestima el riesgo
// de una cartera diversificada.
//
// Un ticker sin estadísticas aporta 0 y genera exactamente un aviso.
func Summarize(alloc Allocation, stats map[string]AssetStat) Summary {
	weights := make([]float64, len(alloc))
	returns := make([]float64, len(alloc))
	vols := make([]float64, len(alloc))

	summary := Summary{Rows: make([]SummaryRow, 0, len(alloc))}
	warned := make(map[string]bool)

	for i, h := range alloc {
		stat, ok := stats[h.Ticker]
		if !ok && !warned[h.Ticker] {
			warned[h.Ticker] = true
			summary.Warnings = append(summary.Warnings, MissingStat{Ticker: h.Ticker})
		}
		weights[i] = h.Weight
		returns[i] = stat.ExpectedReturn
		vols[i] = stat.Volatility

		summary.Rows = append(summary.Rows, SummaryRow{
			Ticker:         h.Ticker,
			Weight:         h.Weight,
			ExpectedReturn: stat.ExpectedReturn,
			Volatility:     stat.Volatility,
			HasStats:       ok,
		})
	}

	if len(alloc) > 0 {
		summary.ExpectedReturn = floats.Dot(weights, returns) / 100
		summary.Volatility = floats.Dot(weights, vols) / 100
	}
	return summary
}
