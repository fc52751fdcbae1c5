package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/finch-ai/finch/internal/session"
)

const (
	defaultSessionPageSize = 20
	maxSessionPageSize     = 100
)

// sessionResponse is the wire shape of one session.
type sessionResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ProjectID string     `json:"project_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func toSessionResponse(sess *session.Session) sessionResponse {
	resp := sessionResponse{
		ID:        sess.ID.String(),
		UserID:    sess.UserID,
		ProjectID: sess.ProjectID,
		StartedAt: sess.StartedAt,
	}
	if sess.Ended() {
		ended := sess.EndedAt
		resp.EndedAt = &ended
	}
	return resp
}

// handleListSessions lists the user's sessions, newest first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	limit := parseBoundedInt(r.URL.Query().Get("limit"), defaultSessionPageSize, maxSessionPageSize)
	offset := parseBoundedInt(r.URL.Query().Get("offset"), 0, 1<<30)

	sessions, err := s.sessions.List(r.Context(), userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list sessions", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, toSessionResponse(sess))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": resp})
}

// handleCloseSession marks a session as ended. Closing an already-closed
// session succeeds.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "session id must be a UUID")
		return
	}

	if err := s.sessions.Close(r.Context(), id); err != nil {
		s.logger.Error("failed to close session", "session_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to close session")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// parseBoundedInt parses a query integer with a fallback and an upper bound.
func parseBoundedInt(raw string, fallback, max int32) int32 {
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return fallback
	}
	if int32(n) > max {
		return max
	}
	return int32(n)
}
