package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Horizon es el plazo de inversión elegido por el usuario.
type Horizon string

const (
	HorizonUnknown Horizon = ""
	HorizonShort   Horizon = "short" // ~6 meses
	HorizonLong    Horizon = "long"  // ~2 años
)

// Horizons devuelve los horizontes válidos en orden.
func Horizons() []Horizon {
	return []Horizon{HorizonShort, HorizonLong}
}

// ParseHorizon acepta "short"/"long" y las formas cortas del formulario original.
func ParseHorizon(s string) (Horizon, error) {
	switch normalize(s) {
	case "short", "6m", "6 months", "6 month":
		return HorizonShort, nil
	case "long", "2y", "2 years", "2 year":
		return HorizonLong, nil
	case "":
		return HorizonUnknown, nil
	}
	return HorizonUnknown, &ValidationError{Field: "horizon", Value: s}
}

// Valid devuelve true si el horizonte es uno de los dos conocidos.
func (h Horizon) Valid() bool {
	return h == HorizonShort || h == HorizonLong
}

// Label devuelve la etiqueta legible ("6 months", "2 years").
func (h Horizon) Label() string {
	switch h {
	case HorizonShort:
		return "6 months"
	case HorizonLong:
		return "2 years"
	}
	return "not selected"
}

func (h Horizon) String() string { return string(h) }

// RiskProfile es la categoría de tolerancia al riesgo derivada del score.
// Nunca la elige el usuario directamente.
type RiskProfile string

const (
	RiskUnknown      RiskProfile = ""
	RiskConservative RiskProfile = "conservative"
	RiskNeutral      RiskProfile = "neutral"
	RiskAggressive   RiskProfile = "aggressive"
)

// RiskProfiles devuelve los perfiles en orden, del más conservador al más agresivo.
func RiskProfiles() []RiskProfile {
	return []RiskProfile{RiskConservative, RiskNeutral, RiskAggressive}
}

// ParseRiskProfile convierte un string al perfil correspondiente.
func ParseRiskProfile(s string) (RiskProfile, error) {
	switch normalize(s) {
	case "conservative":
		return RiskConservative, nil
	case "neutral":
		return RiskNeutral, nil
	case "aggressive":
		return RiskAggressive, nil
	case "":
		return RiskUnknown, nil
	}
	return RiskUnknown, &ValidationError{Field: "risk", Value: s}
}

// Valid devuelve true para los tres perfiles clasificables.
func (r RiskProfile) Valid() bool {
	return r == RiskConservative || r == RiskNeutral || r == RiskAggressive
}

// Label devuelve el nombre legible del perfil, "?" si todavía no se clasificó.
func (r RiskProfile) Label() string {
	switch r {
	case RiskConservative:
		return "Conservative"
	case RiskNeutral:
		return "Neutral"
	case RiskAggressive:
		return "Aggressive"
	}
	return "?"
}

func (r RiskProfile) String() string { return string(r) }

// Umbrales de clasificación (inclusive).
const (
	MinScore             = 4
	MaxScore             = 12
	conservativeMaxScore = 5
	neutralMaxScore      = 8
)

// Classify mapea un score al perfil de riesgo.
//
//	score <= 5      → Conservative
//	6 <= score <= 8 → Neutral
//	score >= 9      → Aggressive
func Classify(score int) RiskProfile {
	switch {
	case score <= conservativeMaxScore:
		return RiskConservative
	case score <= neutralMaxScore:
		return RiskNeutral
	default:
		return RiskAggressive
	}
}

// Question identifica una de las cuatro preguntas que puntúan.
type Question string

const (
	QuestionGoal           Question = "goal"
	QuestionExperience     Question = "experience"
	QuestionMarketReaction Question = "market_reaction"
	QuestionRiskTolerance  Question = "risk_tolerance"
)

// Option es una respuesta posible y su peso (1 = conservador, 3 = agresivo).
type Option struct {
	Value  string `json:"value"`
	Weight int    `json:"weight"`
}

// QuestionDef describe una pregunta del cuestionario.
type QuestionDef struct {
	ID      Question `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

var questions = []QuestionDef{
	{
		ID:     QuestionGoal,
		Prompt: "What is your investment goal?",
		Options: []Option{
			{Value: "asset protection", Weight: 1},
			{Value: "stable income", Weight: 2},
			{Value: "high return", Weight: 3},
		},
	},
	{
		ID:     QuestionExperience,
		Prompt: "How much investment experience do you have?",
		Options: []Option{
			{Value: "none", Weight: 1},
			{Value: "beginner", Weight: 2},
			{Value: "experienced", Weight: 3},
		},
	},
	{
		ID:     QuestionMarketReaction,
		Prompt: "How would you react to a sudden market swing?",
		Options: []Option{
			{Value: "sell to minimize loss", Weight: 1},
			{Value: "wait and see", Weight: 2},
			{Value: "buy more", Weight: 3},
		},
	},
	{
		ID:     QuestionRiskTolerance,
		Prompt: "How would you rate your risk tolerance?",
		Options: []Option{
			{Value: "risk-averse", Weight: 1},
			{Value: "some risk", Weight: 2},
			{Value: "high risk", Weight: 3},
		},
	},
}

// Questions devuelve una copia de la tabla de preguntas, en el orden del formulario.
func Questions() []QuestionDef {
	out := make([]QuestionDef, len(questions))
	for i, q := range questions {
		q.Options = append([]Option(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Weight devuelve el peso de value para la pregunta q, o 0 si no se reconoce.
func Weight(q Question, value string) int {
	v := normalize(value)
	for _, def := range questions {
		if def.ID != q {
			continue
		}
		for _, opt := range def.Options {
			if opt.Value == v {
				return opt.Weight
			}
		}
	}
	return 0
}

// ScoreAnswers suma los pesos de las cuatro respuestas.
// Un valor vacío o no reconocido aporta 0: el resultado solo cae en [4, 12]
// cuando las cuatro respuestas son válidas.
func ScoreAnswers(goal, experience, marketReaction, riskTolerance string) int {
	return Weight(QuestionGoal, goal) +
		Weight(QuestionExperience, experience) +
		Weight(QuestionMarketReaction, marketReaction) +
		Weight(QuestionRiskTolerance, riskTolerance)
}

// Answers son las respuestas del cuestionario. Name y Gender son opcionales.
type Answers struct {
	Name           string  `json:"name,omitempty"`
	Gender         string  `json:"gender,omitempty"`
	Goal           string  `json:"goal"`
	Experience     string  `json:"experience"`
	MarketReaction string  `json:"market_reaction"`
	RiskTolerance  string  `json:"risk_tolerance"`
	Horizon        Horizon `json:"horizon"`
}

// Score aplica ScoreAnswers sobre las cuatro respuestas que puntúan.
func (a Answers) Score() int {
	return ScoreAnswers(a.Goal, a.Experience, a.MarketReaction, a.RiskTolerance)
}

// Missing devuelve los campos requeridos que siguen vacíos.
// El horizonte es requerido para elegir cartera aunque no puntúe.
func (a Answers) Missing() []string {
	var missing []string
	for _, f := range a.scored() {
		if normalize(f.value) == "" {
			missing = append(missing, string(f.q))
		}
	}
	if a.Horizon == HorizonUnknown {
		missing = append(missing, "horizon")
	}
	return missing
}

// Complete devuelve true cuando todos los campos requeridos tienen valor.
func (a Answers) Complete() bool {
	return len(a.Missing()) == 0
}

// Validate comprueba que cada respuesta no vacía pertenezca a su dominio.
// Los campos vacíos no son error aquí: eso es el estado "incompleto".
func (a Answers) Validate() error {
	var errs []error
	for _, f := range a.scored() {
		if normalize(f.value) == "" {
			continue
		}
		if Weight(f.q, f.value) == 0 {
			errs = append(errs, &ValidationError{Field: string(f.q), Value: f.value})
		}
	}
	if a.Horizon != HorizonUnknown && !a.Horizon.Valid() {
		errs = append(errs, &ValidationError{Field: "horizon", Value: string(a.Horizon)})
	}
	return errors.Join(errs...)
}

// DisplayName devuelve el nombre o "not entered".
func (a Answers) DisplayName() string {
	if strings.TrimSpace(a.Name) == "" {
		return "not entered"
	}
	return strings.TrimSpace(a.Name)
}

type scoredField struct {
	q     Question
	value string
}

func (a Answers) scored() []scoredField {
	return []scoredField{
		{QuestionGoal, a.Goal},
		{QuestionExperience, a.Experience},
		{QuestionMarketReaction, a.MarketReaction},
		{QuestionRiskTolerance, a.RiskTolerance},
	}
}

// ValidationError indica un valor fuera del dominio de un campo.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// Unwrap permite errors.Is(err, ErrInvalidAnswer).
func (e *ValidationError) Unwrap() error { return ErrInvalidAnswer }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
