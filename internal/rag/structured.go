package rag

import (
	"context"
	"log/slog"

	"github.com/finch-ai/finch/internal/sqlc"
)

// RecordQuerier defines the relational-store reads the Structured retriever
// depends on. Interfaces are defined by the consumer, not the provider, so
// the retriever depends on abstraction rather than the concrete sqlc
// implementation.
type RecordQuerier interface {
	ListProjectDocuments(ctx context.Context, arg sqlc.ListProjectDocumentsParams) ([]sqlc.Document, error)
	ListProjectEmails(ctx context.Context, arg sqlc.ListProjectEmailsParams) ([]sqlc.Email, error)
	ListProjectMeetings(ctx context.Context, arg sqlc.ListProjectMeetingsParams) ([]sqlc.Meeting, error)
}

// Structured retrieves project-scoped records from the relational store:
// documents (scoped to the requesting user as owner), emails, and meetings.
//
// Structured is safe for concurrent use by multiple goroutines.
type Structured struct {
	querier RecordQuerier
	logger  *slog.Logger
}

// NewStructured creates a structured retriever. A nil logger uses slog.Default().
func NewStructured(querier RecordQuerier, logger *slog.Logger) *Structured {
	if logger == nil {
		logger = slog.Default()
	}
	return &Structured{querier: querier, logger: logger}
}

// Retrieve returns context items from the three record collections, each
// capped at maxResults. The collections are queried independently: a failure
// in one degrades to zero results from that collection, logged at warning
// level, and never aborts the overall retrieval — Retrieve has no error
// return by design.
//
// Ordering within each collection is the store's default (recency
// descending); final ordering happens in Rank.
func (r *Structured) Retrieve(ctx context.Context, projectID, userID, query string, maxResults int32) []ContextItem {
	var items []ContextItem

	docs, err := r.querier.ListProjectDocuments(ctx, sqlc.ListProjectDocumentsParams{
		ProjectID:   projectID,
		CreatedBy:   userID,
		ResultLimit: maxResults,
	})
	if err != nil {
		r.logger.Warn("document retrieval failed, continuing without documents",
			"project_id", projectID, "error", err)
	}
	for _, doc := range docs {
		items = append(items, ContextItem{
			Type:      ItemTypeDocument,
			Source:    "project documents",
			Title:     doc.Title,
			Content:   doc.Content,
			Author:    doc.CreatedBy,
			CreatedAt: doc.CreatedAt.Time,
		})
	}

	emails, err := r.querier.ListProjectEmails(ctx, sqlc.ListProjectEmailsParams{
		ProjectID:   projectID,
		ResultLimit: maxResults,
	})
	if err != nil {
		r.logger.Warn("email retrieval failed, continuing without emails",
			"project_id", projectID, "error", err)
	}
	for _, email := range emails {
		items = append(items, ContextItem{
			Type:      ItemTypeEmail,
			Source:    "project emails",
			Title:     email.Subject,
			Content:   email.Body,
			Author:    email.Sender,
			CreatedAt: email.SentAt.Time,
		})
	}

	meetings, err := r.querier.ListProjectMeetings(ctx, sqlc.ListProjectMeetingsParams{
		ProjectID:   projectID,
		ResultLimit: maxResults,
	})
	if err != nil {
		r.logger.Warn("meeting retrieval failed, continuing without meetings",
			"project_id", projectID, "error", err)
	}
	for _, meeting := range meetings {
		items = append(items, ContextItem{
			Type:      ItemTypeMeeting,
			Source:    "project meetings",
			Title:     meeting.Title,
			Content:   meeting.Summary,
			Author:    meeting.Organizer,
			CreatedAt: meeting.ScheduledAt.Time,
		})
	}

	r.logger.Debug("structured retrieval complete",
		"project_id", projectID,
		"documents", len(docs),
		"emails", len(emails),
		"meetings", len(meetings))

	return items
}
