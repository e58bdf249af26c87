package domain

import "time"

// Status del resultado del cuestionario.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

// PortfolioRow es una fila de la tabla de cartera lista para presentar.
type PortfolioRow struct {
	SummaryRow
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

// PortfolioView es la cartera seleccionada para un (perfil, horizonte),
// enriquecida con estadísticas y descripciones.
type PortfolioView struct {
	Risk       RiskProfile    `json:"risk"`
	Horizon    Horizon        `json:"horizon"`
	Allocation Allocation     `json:"allocation"`
	Rows       []PortfolioRow `json:"rows"`

	// StatsAvailable=false: la fuente de estadísticas no existe; no hay resumen.
	StatsAvailable bool          `json:"stats_available"`
	ExpectedReturn float64       `json:"expected_return"`
	Volatility     float64       `json:"volatility"`
	Warnings       []MissingStat `json:"warnings,omitempty"`
	WeightCheck    WeightCheck   `json:"weight_check"`
	Notices        []string      `json:"notices,omitempty"`
}

// Recommendation es el resultado completo del pipeline para unas respuestas.
type Recommendation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Answers   Answers   `json:"answers"`
	Status    Status    `json:"status"`
	Missing   []string  `json:"missing,omitempty"`

	Score     int            `json:"score,omitempty"`
	Profile   RiskProfile    `json:"profile,omitempty"`
	Portfolio *PortfolioView `json:"portfolio,omitempty"`
}

// ProfileLabel devuelve el perfil legible, "?" mientras esté incompleto.
func (r Recommendation) ProfileLabel() string {
	if r.Status != StatusComplete {
		return "?"
	}
	return r.Profile.Label()
}

// HorizonLabel devuelve el horizonte legible o "not selected".
func (r Recommendation) HorizonLabel() string {
	return r.Answers.Horizon.Label()
}
