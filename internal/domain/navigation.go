package domain

import "fmt"

// Page es la pantalla activa. El estado lo guarda quien presenta (sesión de CLI,
// cliente HTTP); el core solo calcula transiciones.
type Page string

const (
	PageSurvey    Page = "survey"
	PagePortfolio Page = "portfolio"
	PageBacktest  Page = "backtest"
)

// NavEvent es una acción explícita del usuario.
type NavEvent string

const (
	EventSubmit       NavEvent = "submit"
	EventViewBacktest NavEvent = "view_backtest"
	EventBack         NavEvent = "back"
	EventRestart      NavEvent = "restart"
)

// ParsePage devuelve la página para s; vacío equivale a la encuesta.
func ParsePage(s string) (Page, error) {
	switch Page(normalize(s)) {
	case PageSurvey, "":
		return PageSurvey, nil
	case PagePortfolio:
		return PagePortfolio, nil
	case PageBacktest:
		return PageBacktest, nil
	}
	return "", &ValidationError{Field: "page", Value: s}
}

// Navigate devuelve la página destino.
//
//	survey    --submit-->        portfolio  (solo con la encuesta completa)
//	portfolio --view_backtest--> backtest
//	portfolio --back-->          survey
//	backtest  --back-->          portfolio
//	*         --restart-->       survey
func Navigate(from Page, event NavEvent, surveyComplete bool) (Page, error) {
	if event == EventRestart {
		return PageSurvey, nil
	}

	switch from {
	case PageSurvey:
		if event == EventSubmit {
			if !surveyComplete {
				return PageSurvey, ErrSurveyIncomplete
			}
			return PagePortfolio, nil
		}
	case PagePortfolio:
		switch event {
		case EventViewBacktest:
			return PageBacktest, nil
		case EventBack:
			return PageSurvey, nil
		}
	case PageBacktest:
		if event == EventBack {
			return PagePortfolio, nil
		}
	}
	return from, fmt.Errorf("%w: %q from %q", ErrInvalidTransition, event, from)
}
