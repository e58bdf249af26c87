package domain

import (
	"fmt"
	"math"
)

// Holding es un activo de la cartera y su peso en puntos porcentuales.
type Holding struct {
	Ticker string  `json:"ticker" yaml:"ticker"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Allocation es un mapeo ordenado ticker → peso. El orden es el del catálogo
// y se conserva en tablas y gráficos.
type Allocation []Holding

// Total devuelve la suma de pesos.
func (a Allocation) Total() float64 {
	total := 0.0
	for _, h := range a {
		total += h.Weight
	}
	return total
}

// Tickers devuelve los tickers en orden.
func (a Allocation) Tickers() []string {
	out := make([]string, len(a))
	for i, h := range a {
		out[i] = h.Ticker
	}
	return out
}

// Weight devuelve el peso de ticker y si existe en la cartera.
func (a Allocation) Weight(ticker string) (float64, bool) {
	for _, h := range a {
		if h.Ticker == ticker {
			return h.Weight, true
		}
	}
	return 0, false
}

// Clone devuelve una copia independiente.
func (a Allocation) Clone() Allocation {
	if a == nil {
		return nil
	}
	return append(Allocation(nil), a...)
}

// Scale devuelve una copia con cada peso multiplicado por k.
func (a Allocation) Scale(k float64) Allocation {
	out := a.Clone()
	for i := range out {
		out[i].Weight *= k
	}
	return out
}

// Shares devuelve la proporción de cada activo sobre el total (para el gráfico de tarta).
// Si el total es 0 devuelve ceros.
func (a Allocation) Shares() []float64 {
	out := make([]float64, len(a))
	total := a.Total()
	if total <= 0 {
		return out
	}
	for i, h := range a {
		out[i] = h.Weight / total
	}
	return out
}

// WeightCheck es el resultado de comparar la suma de pesos contra 100.
type WeightCheck struct {
	Total     float64 `json:"total"`
	Tolerance float64 `json:"tolerance"`
	OK        bool    `json:"ok"`
}

// CheckTotal compara la suma de pesos con 100 ± tolerance.
// Los datos de origen no siempre suman 100; aquí solo se informa.
func (a Allocation) CheckTotal(tolerance float64) WeightCheck {
	total := a.Total()
	return WeightCheck{
		Total:     total,
		Tolerance: tolerance,
		OK:        math.Abs(total-100) <= tolerance,
	}
}

func (c WeightCheck) String() string {
	if c.OK {
		return fmt.Sprintf("weights sum to %.2f (100 ± %.2f)", c.Total, c.Tolerance)
	}
	return fmt.Sprintf("weights sum to %.2f, outside 100 ± %.2f", c.Total, c.Tolerance)
}
