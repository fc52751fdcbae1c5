package session

import (
	"time"

	"github.com/google/uuid"
)

// Role constants define valid turn roles. Roles are written explicitly by
// the caller, never inferred from sender metadata.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session represents a multi-turn conversation scoped to one user and one
// project for its lifetime.
type Session struct {
	ID        uuid.UUID
	UserID    string
	ProjectID string
	StartedAt time.Time
	EndedAt   time.Time // zero value = still open
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool {
	return !s.EndedAt.IsZero()
}

// Turn is a single conversation turn in a session's append-only log.
type Turn struct {
	ID         int64
	SessionID  uuid.UUID
	Role       string // "user" | "assistant"
	SenderName string // display metadata only, never used for role decisions
	Message    string
	CreatedAt  time.Time
}
