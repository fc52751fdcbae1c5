// Package api exposes the query pipeline over HTTP: a streaming ask
// endpoint (Server-Sent Events), project summaries, session management, and
// health probes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/finch-ai/finch/internal/rag"
	"github.com/finch-ai/finch/internal/session"
)

// Answerer is the slice of the pipeline the HTTP layer consumes.
type Answerer interface {
	StreamAnswer(ctx context.Context, question, projectID, userID string, sessionID uuid.UUID, onChunk rag.StreamFunc) error
	SummarizeProject(ctx context.Context, projectID, userID string) (string, error)
}

// SessionStore is the slice of the session store the HTTP layer consumes.
type SessionStore interface {
	GetOrCreate(ctx context.Context, id uuid.UUID, userID, projectID string) (*session.Session, error)
	AppendTurn(ctx context.Context, id uuid.UUID, userID, role, senderName, message string) bool
	List(ctx context.Context, userID string, limit, offset int32) ([]*session.Session, error)
	Close(ctx context.Context, id uuid.UUID) error
}

// Pinger reports backing-store liveness for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig carries the server's collaborators.
type ServerConfig struct {
	Pipeline Answerer     // required
	Sessions SessionStore // required
	DB       Pinger       // optional: nil makes /ready report ok unconditionally
	Logger   *slog.Logger // nil = slog.Default()
}

// Server is the HTTP front end. It implements http.Handler with a
// recovery -> logging middleware stack around a stdlib ServeMux.
type Server struct {
	mux      *http.ServeMux
	handler  http.Handler
	pipeline Answerer
	sessions SessionStore
	db       Pinger
	logger   *slog.Logger
}

// NewServer wires all routes and returns the server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("api: nil pipeline")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("api: nil session store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		pipeline: cfg.Pipeline,
		sessions: cfg.Sessions,
		db:       cfg.DB,
		logger:   logger,
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.HandleFunc("POST /api/ask", s.handleAsk)
	s.mux.HandleFunc("GET /api/projects/{id}/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /api/sessions/{id}/close", s.handleCloseSession)

	// Recovery catches panics from every layer below; logging tracks all
	// requests including streamed ones.
	s.handler = recoveryMiddleware(logger)(loggingMiddleware(logger)(s.mux))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// writeError writes a plain-language JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
