package domain

import "errors"

var (
	// ErrInvalidAnswer: respuesta no vacía fuera del dominio de su pregunta.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrMalformedData: celda no numérica o fecha ilegible en una fuente de datos.
	// Es fatal para la petición; no se renderizan cifras parciales.
	ErrMalformedData = errors.New("malformed data")

	// ErrSurveyIncomplete: se intentó avanzar sin completar el cuestionario.
	ErrSurveyIncomplete = errors.New("survey incomplete")

	// ErrInvalidTransition: evento no permitido desde la página actual.
	ErrInvalidTransition = errors.New("invalid page transition")
)
