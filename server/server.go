// Package server exposes the course assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mgryszko/starting-ragchatbot-codebase/observability"
	"github.com/mgryszko/starting-ragchatbot-codebase/rag"
	"github.com/mgryszko/starting-ragchatbot-codebase/tools"
)

// Config controls the HTTP server.
type Config struct {
	Address string `yaml:"address,omitempty"`

	// ReadTimeout and WriteTimeout in seconds. Queries can run two
	// model rounds, so the write timeout defaults high.
	ReadTimeout  int `yaml:"read_timeout,omitempty"`
	WriteTimeout int `yaml:"write_timeout,omitempty"`
}

func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8000"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 300
	}
}

// Server serves the query, catalog, and session endpoints.
type Server struct {
	system     *rag.System
	httpServer *http.Server
}

// New builds the router and server. metrics may be nil.
func New(system *rag.System, metrics observability.Metrics, cfg Config) *Server {
	cfg.SetDefaults()

	s := &Server{system: system}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observability.MetricsMiddleware(metrics))

	r.Post("/api/query", s.handleQuery)
	r.Get("/api/courses", s.handleCourses)
	r.Post("/api/session/clear", s.handleSessionClear)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// sourceDTO renders a source attribution; a missing link is JSON null.
type sourceDTO struct {
	Text string  `json:"text"`
	Link *string `json:"link"`
}

type queryResponse struct {
	Answer    string      `json:"answer"`
	Sources   []sourceDTO `json:"sources"`
	SessionID string      `json:"session_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.system.CreateSession()
	}

	answer, sources, err := s.system.Query(r.Context(), req.Query, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:    answer,
		Sources:   toSourceDTOs(sources),
		SessionID: sessionID,
	})
}

func toSourceDTOs(sources []tools.Source) []sourceDTO {
	out := make([]sourceDTO, 0, len(sources))
	for _, source := range sources {
		dto := sourceDTO{Text: source.Text}
		if source.Link != "" {
			link := source.Link
			dto.Link = &link
		}
		out = append(out, dto)
	}
	return out
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.system.GetCourseAnalytics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

type sessionClearRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	var req sessionClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("session_id is required"))
		return
	}

	if err := s.system.ClearSession(req.SessionID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
