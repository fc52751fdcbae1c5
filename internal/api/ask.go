package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/finch-ai/finch/internal/session"
)

// askRequest is the body of POST /api/ask.
type askRequest struct {
	Question   string `json:"question"`
	ProjectID  string `json:"project_id"`
	UserID     string `json:"user_id"`
	SessionID  string `json:"session_id,omitempty"`  // optional: omitted starts a new conversation
	SenderName string `json:"sender_name,omitempty"` // recorded on the persisted user turn
}

func (r *askRequest) validate() error {
	switch {
	case r.Question == "":
		return errors.New("question is required")
	case r.ProjectID == "":
		return errors.New("project_id is required")
	case r.UserID == "":
		return errors.New("user_id is required")
	}
	return nil
}

// handleAsk answers a question as an SSE stream. Events, in order: one
// "session" event carrying the resolved session id, then "chunk" events
// with incremental answer text, then one "done" event. A generation failure
// arrives as a regular chunk (the pipeline converts it to plain language);
// transport failures just end the stream.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := uuid.New()
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "session_id must be a UUID")
			return
		}
		sessionID = parsed
	}

	sse, err := NewEventWriter(w)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	if err := sse.WriteEvent(ctx, "session", map[string]string{"session_id": sessionID.String()}); err != nil {
		return
	}

	// The user turn is recorded up front so the pipeline's history window
	// (and any concurrent request) sees it; the assistant turn is written by
	// the pipeline after the stream completes. The session must exist before
	// the first turn references it.
	if _, err := s.sessions.GetOrCreate(ctx, sessionID, req.UserID, req.ProjectID); err != nil {
		s.logger.Warn("session resolution failed, user turn not recorded",
			"session_id", sessionID, "error", err)
	} else {
		s.sessions.AppendTurn(ctx, sessionID, req.UserID, session.RoleUser, req.SenderName, req.Question)
	}

	err = s.pipeline.StreamAnswer(ctx, req.Question, req.ProjectID, req.UserID, sessionID,
		func(ctx context.Context, text string) error {
			return sse.WriteEvent(ctx, "chunk", map[string]string{"text": text})
		})
	if err != nil {
		// Disconnected client or invalid input mid-stream: nothing useful
		// can be written anymore.
		s.logger.Debug("ask stream ended early",
			"session_id", sessionID, "error", err)
		return
	}

	if err := sse.WriteEvent(ctx, "done", map[string]string{"session_id": sessionID.String()}); err != nil {
		s.logger.Debug("failed to write done event", "session_id", sessionID, "error", err)
	}
}

// handleSummary reports record counts and the stored overview for a project.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	summary, err := s.pipeline.SummarizeProject(r.Context(), projectID, userID)
	if err != nil {
		s.logger.Warn("project summary failed", "project_id", projectID, "error", err)
		s.writeError(w, http.StatusNotFound, "project not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"project_id": projectID,
		"summary":    summary,
	})
}
