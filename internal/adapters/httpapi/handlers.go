package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alejandrodnm/riskfolio/internal/adapters/notify"
	"github.com/alejandrodnm/riskfolio/internal/domain"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

type healthResponse struct {
	Status         string `json:"status"`
	CatalogVersion int    `json:"catalog_version"`
}

type assetResponse struct {
	Ticker      string `json:"ticker"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

type navigationRequest struct {
	Page    string      `json:"page"`
	Event   string      `json:"event"`
	Answers answersBody `json:"answers"`
}

type navigationResponse struct {
	Page domain.Page `json:"page"`
}

// answersBody acepta el horizonte en cualquier forma que entienda
// domain.ParseHorizon ("long", "2y", "2 years").
type answersBody struct {
	domain.Answers
	Horizon string `json:"horizon"`
}

// parse devuelve las respuestas con el horizonte ya validado.
func (b answersBody) parse() (domain.Answers, error) {
	horizon, err := domain.ParseHorizon(b.Horizon)
	if err != nil {
		return domain.Answers{}, err
	}
	answers := b.Answers
	answers.Horizon = horizon
	return answers, nil
}

type recommendationRequest struct {
	answersBody
	WithBacktest bool `json:"with_backtest,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		CatalogVersion: s.advisor.Catalog().Version(),
	})
}

func (s *Server) handleQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Questions())
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	answers, _, ok := decodeAnswers(w, r)
	if !ok {
		return
	}
	rec, err := s.advisor.Recommend(r.Context(), answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRecommendPDF(w http.ResponseWriter, r *http.Request) {
	answers, withBacktest, ok := decodeAnswers(w, r)
	if !ok {
		return
	}
	rec, err := s.advisor.Recommend(r.Context(), answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rec.Status != domain.StatusComplete {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   domain.ErrSurveyIncomplete.Error(),
			Missing: rec.Missing,
		})
		return
	}

	var bt *domain.BacktestReport
	if withBacktest {
		report, err := s.advisor.Backtest(r.Context(), rec.Profile, rec.Answers.Horizon)
		if err != nil {
			writeError(w, r, err)
			return
		}
		bt = &report
	}

	data, err := notify.RecommendationPDF(rec, bt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="recommendation-`+rec.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	risk, horizon, ok := pathKey(w, r)
	if !ok {
		return
	}
	view, err := s.advisor.Portfolio(r.Context(), risk, horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	risk, horizon, ok := pathKey(w, r)
	if !ok {
		return
	}
	report, err := s.advisor.Backtest(r.Context(), risk, horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	asset := s.advisor.Catalog().Asset(ticker)
	writeJSON(w, http.StatusOK, assetResponse{
		Ticker:      ticker,
		Description: asset.Description,
		Link:        asset.Link,
	})
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	var req navigationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	from, err := domain.ParsePage(req.Page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	answers, err := req.Answers.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}

	next, err := domain.Navigate(from, domain.NavEvent(strings.ToLower(strings.TrimSpace(req.Event))), answers.Complete())
	if errors.Is(err, domain.ErrSurveyIncomplete) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   err.Error(),
			Missing: answers.Missing(),
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, navigationResponse{Page: next})
}

// --- helpers ---

// decodeAnswers lee el cuerpo de una recomendación. Un horizonte no reconocido
// es un error de validación (422).
func decodeAnswers(w http.ResponseWriter, r *http.Request) (domain.Answers, bool, bool) {
	var req recommendationRequest
	if !decodeJSON(w, r, &req) {
		return domain.Answers{}, false, false
	}
	answers, err := req.parse()
	if err != nil {
		writeError(w, r, err)
		return domain.Answers{}, false, false
	}
	return answers, req.WithBacktest, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// pathKey parsea {risk}/{horizon}. Una clave desconocida es 400: la URL no
// identifica ninguna cartera.
func pathKey(w http.ResponseWriter, r *http.Request) (domain.RiskProfile, domain.Horizon, bool) {
	risk, err := domain.ParseRiskProfile(chi.URLParam(r, "risk"))
	if err == nil && risk == domain.RiskUnknown {
		err = &domain.ValidationError{Field: "risk"}
	}
	if err != nil {
		writeBadKey(w, err)
		return "", "", false
	}
	horizon, err := domain.ParseHorizon(chi.URLParam(r, "horizon"))
	if err == nil && horizon == domain.HorizonUnknown {
		err = &domain.ValidationError{Field: "horizon"}
	}
	if err != nil {
		writeBadKey(w, err)
		return "", "", false
	}
	return risk, horizon, true
}

func writeBadKey(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// writeError traduce errores del dominio a códigos HTTP.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		body.Field = verr.Field
	case errors.Is(err, domain.ErrInvalidAnswer), errors.Is(err, domain.ErrSurveyIncomplete):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrMalformedData):
		body.Error = "data source is malformed"
		slog.Error("malformed data", "path", r.URL.Path, "err", err)
	default:
		body.Error = "internal error"
		slog.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, body)
}

// writeJSON codifica antes de escribir la cabecera: un fallo de codificación es
// un 500 completo, nunca un 200 vacío.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorBody{Error: "internal error"})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
