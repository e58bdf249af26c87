// Package httpapi expone el advisor como API JSON.
//
// Rutas:
//
//	GET  /healthz
//	GET  /api/questions
//	POST /api/recommendations
//	POST /api/recommendations/pdf
//	GET  /api/portfolios/{risk}/{horizon}
//	GET  /api/backtests/{risk}/{horizon}
//	GET  /api/assets/{ticker}
//	POST /api/navigation
//
// El servidor no guarda estado de usuario: la página actual y las respuestas
// viajan en cada petición.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/riskfolio/internal/application/advisor"
)

// Config controla el servidor HTTP.
type Config struct {
	Addr           string
	RatePerSec     float64
	Burst          int
	AllowedOrigins []string
}

// Server envuelve el router chi y el http.Server.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	advisor *advisor.Advisor
	limiter *rate.Limiter
}

// New crea el servidor con middleware y rutas.
func New(cfg Config, adv *advisor.Advisor) *Server {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RatePerSec) * 2
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		router:  chi.NewRouter(),
		advisor: adv,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
	}

	s.setupMiddleware(cfg)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler devuelve el router (tests con httptest).
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(s.rateLimit)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/questions", s.handleQuestions)
		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/", s.handleRecommend)
			r.Post("/pdf", s.handleRecommendPDF)
		})
		r.Get("/portfolios/{risk}/{horizon}", s.handlePortfolio)
		r.Get("/backtests/{risk}/{horizon}", s.handleBacktest)
		r.Get("/assets/{ticker}", s.handleAsset)
		r.Post("/navigation", s.handleNavigation)
	})
}

// Run arranca el servidor y lo apaga cuando ctx se cancela.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpapi.Run: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi.Run: shutdown: %w", err)
	}
	return nil
}

// rateLimit rechaza con 429 cuando el bucket está vacío. /healthz no consume.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware registra cada petición con slog.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
