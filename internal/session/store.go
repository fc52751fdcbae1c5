// Package session provides conversation session persistence.
//
// Responsibilities: get-or-create sessions, append turns to the per-session
// append-only log, and load recent history in chronological order.
//
// Store is safe for concurrent use by multiple goroutines.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/finch-ai/finch/internal/sqlc"
)

// Querier defines the database operations the Store depends on.
// Interfaces are defined by the consumer, not the provider, so the Store
// depends on abstraction rather than the concrete sqlc implementation.
type Querier interface {
	InsertSessionIfAbsent(ctx context.Context, arg sqlc.InsertSessionIfAbsentParams) error
	GetSession(ctx context.Context, id pgtype.UUID) (sqlc.Session, error)
	ListSessions(ctx context.Context, arg sqlc.ListSessionsParams) ([]sqlc.Session, error)
	CloseSession(ctx context.Context, id pgtype.UUID) error
	AppendTurn(ctx context.Context, arg sqlc.AppendTurnParams) error
	GetRecentTurns(ctx context.Context, arg sqlc.GetRecentTurnsParams) ([]sqlc.SessionTurn, error)
}

// Store manages session persistence with a PostgreSQL backend.
type Store struct {
	querier Querier
	logger  *slog.Logger
}

// New creates a new Store instance. A nil logger uses slog.Default().
func New(querier Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		querier: querier,
		logger:  logger,
	}
}

// GetOrCreate returns the session with the given id, creating it if absent.
//
// Idempotent: the insert uses ON CONFLICT DO NOTHING keyed by id, so the
// is-absent check and the insert are a single logical operation and
// concurrent calls with the same id never create duplicates. An existing
// session is returned unchanged, even if userID/projectID differ.
func (s *Store) GetOrCreate(ctx context.Context, id uuid.UUID, userID, projectID string) (*Session, error) {
	if err := s.querier.InsertSessionIfAbsent(ctx, sqlc.InsertSessionIfAbsentParams{
		ID:        uuidToPgUUID(id),
		UserID:    userID,
		ProjectID: projectID,
	}); err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", id, err)
	}

	row, err := s.querier.GetSession(ctx, uuidToPgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	sess := sqlcSessionToSession(row)
	s.logger.Debug("resolved session",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"project_id", sess.ProjectID)
	return sess, nil
}

// RecentTurns returns the most recent limit turns in chronological order.
// The underlying store is queried newest-first and the result is reversed
// before return.
func (s *Store) RecentTurns(ctx context.Context, id uuid.UUID, userID string, limit int32) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.querier.GetRecentTurns(ctx, sqlc.GetRecentTurnsParams{
		SessionID:   uuidToPgUUID(id),
		UserID:      userID,
		ResultLimit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get turns for session %s: %w", id, err)
	}

	// Newest-first from the store; reverse to chronological.
	turns := make([]Turn, len(rows))
	for i, row := range rows {
		turns[len(rows)-1-i] = Turn{
			ID:         row.ID,
			SessionID:  pgUUIDToUUID(row.SessionID),
			Role:       row.Role,
			SenderName: row.SenderName,
			Message:    row.Message,
			CreatedAt:  row.CreatedAt.Time,
		}
	}

	return turns, nil
}

// AppendTurn appends a turn to the session's log. The role must be RoleUser
// or RoleAssistant and is written exactly as given.
//
// Failures are logged and surfaced as false rather than an error: a failed
// persistence must never prevent the caller from delivering an
// already-streamed answer.
func (s *Store) AppendTurn(ctx context.Context, id uuid.UUID, userID, role, senderName, message string) bool {
	if role != RoleUser && role != RoleAssistant {
		s.logger.Error("rejecting turn with invalid role",
			"session_id", id, "role", role, "error", ErrInvalidRole)
		return false
	}

	if err := s.querier.AppendTurn(ctx, sqlc.AppendTurnParams{
		SessionID:  uuidToPgUUID(id),
		UserID:     userID,
		Role:       role,
		SenderName: senderName,
		Message:    message,
	}); err != nil {
		s.logger.Error("failed to append turn",
			"session_id", id, "role", role, "error", err)
		return false
	}

	s.logger.Debug("appended turn", "session_id", id, "role", role, "length", len(message))
	return true
}

// Close marks the session as ended. Idempotent: closing an already-closed
// session is a no-op.
func (s *Store) Close(ctx context.Context, id uuid.UUID) error {
	if err := s.querier.CloseSession(ctx, uuidToPgUUID(id)); err != nil {
		return fmt.Errorf("failed to close session %s: %w", id, err)
	}
	s.logger.Debug("closed session", "session_id", id)
	return nil
}

// List returns the user's sessions ordered by start time descending.
func (s *Store) List(ctx context.Context, userID string, limit, offset int32) ([]*Session, error) {
	rows, err := s.querier.ListSessions(ctx, sqlc.ListSessionsParams{
		UserID:       userID,
		ResultLimit:  limit,
		ResultOffset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, sqlcSessionToSession(row))
	}
	return sessions, nil
}

// sqlcSessionToSession converts sqlc.Session to the application type.
func sqlcSessionToSession(row sqlc.Session) *Session {
	sess := &Session{
		ID:        pgUUIDToUUID(row.ID),
		UserID:    row.UserID,
		ProjectID: row.ProjectID,
		StartedAt: row.StartedAt.Time,
	}
	if row.EndedAt.Valid {
		sess.EndedAt = row.EndedAt.Time
	}
	return sess
}

// uuidToPgUUID converts uuid.UUID to pgtype.UUID.
func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgUUIDToUUID converts pgtype.UUID to uuid.UUID.
func pgUUIDToUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return id.Bytes
}
