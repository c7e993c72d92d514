// Package server exposes the goal coach over HTTP: one chat endpoint driving
// the conversational engine plus read/delete endpoints for goals.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stridehq/stride/internal/chat"
	"github.com/stridehq/stride/internal/telemetry"
	"github.com/stridehq/stride/store"
)

type Server struct {
	store     store.GoalStore
	chat      *chat.Service
	telemetry telemetry.Client
	server    *http.Server
}

// Config holds the server wiring.
type Config struct {
	Port           int
	AllowedOrigins []string
	Store          store.GoalStore
	Chat           *chat.Service
	Telemetry      telemetry.Client
}

func New(cfg Config) *Server {
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = struct{}{}
	}

	tel := cfg.Telemetry
	if tel == nil {
		tel = telemetry.NewNoopClient()
	}

	s := &Server{
		store:     cfg.Store,
		chat:      cfg.Chat,
		telemetry: tel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("GET /api/goals/{id}/progress", s.handleGoalProgress)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           withCORS(origins, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and flushes telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	defer func() { _ = s.telemetry.Close() }()
	return s.server.Shutdown(ctx)
}
