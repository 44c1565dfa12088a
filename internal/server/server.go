// Package server exposes the latest report and the run history over HTTP in watch mode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"StockAnalyzer/internal/pipeline"
	"StockAnalyzer/internal/recorder"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	Log      zerolog.Logger
	Latest   func() *pipeline.Result // most recent successful run, nil before the first one
	Recorder recorder.Recorder
}

// Server is the watch-mode HTTP API.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	latest func() *pipeline.Result
	rec    recorder.Recorder
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewNoopRecorder()
	}
	if cfg.Latest == nil {
		cfg.Latest = func() *pipeline.Result { return nil }
	}
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		latest: cfg.Latest,
		rec:    cfg.Recorder,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}/securities", s.handleRunSecurities)
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if res := s.latest(); res != nil {
		body["last_run_id"] = res.ID
		body["last_run_at"] = res.StartedAt
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	res := s.latest()
	if res == nil {
		s.writeError(w, http.StatusNotFound, "no report yet")
		return
	}
	s.writeJSON(w, http.StatusOK, newReportView(res))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	runs, err := s.rec.RecentRuns(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunSecurities(w http.ResponseWriter, r *http.Request) {
	rows, err := s.rec.RunSecurities(chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error().Err(err).Msg("list run securities")
		s.writeError(w, http.StatusInternalServerError, "failed to list securities")
		return
	}
	if len(rows) == 0 {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}
