package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/finch-ai/finch/internal/log"
	"github.com/finch-ai/finch/internal/sqlc"
)

// mockRecordQuerier implements RecordQuerier for testing.
type mockRecordQuerier struct {
	documents []sqlc.Document
	emails    []sqlc.Email
	meetings  []sqlc.Meeting

	documentsErr error
	emailsErr    error
	meetingsErr  error

	lastDocParams sqlc.ListProjectDocumentsParams
}

func (m *mockRecordQuerier) ListProjectDocuments(ctx context.Context, arg sqlc.ListProjectDocumentsParams) ([]sqlc.Document, error) {
	m.lastDocParams = arg
	if m.documentsErr != nil {
		return nil, m.documentsErr
	}
	return m.documents, nil
}

func (m *mockRecordQuerier) ListProjectEmails(ctx context.Context, arg sqlc.ListProjectEmailsParams) ([]sqlc.Email, error) {
	if m.emailsErr != nil {
		return nil, m.emailsErr
	}
	return m.emails, nil
}

func (m *mockRecordQuerier) ListProjectMeetings(ctx context.Context, arg sqlc.ListProjectMeetingsParams) ([]sqlc.Meeting, error) {
	if m.meetingsErr != nil {
		return nil, m.meetingsErr
	}
	return m.meetings, nil
}

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func TestStructuredRetrieve(t *testing.T) {
	now := time.Now()
	mock := &mockRecordQuerier{
		documents: []sqlc.Document{
			{Title: "Budget memo", Content: "Q1 numbers", CreatedBy: "alice", CreatedAt: ts(now)},
		},
		emails: []sqlc.Email{
			{Subject: "Re: kickoff", Body: "see attached", Sender: "bob@example.com", SentAt: ts(now)},
		},
		meetings: []sqlc.Meeting{
			{Title: "Planning", Summary: "decided scope", Organizer: "carol", ScheduledAt: ts(now)},
		},
	}
	r := NewStructured(mock, log.NewNop())

	items := r.Retrieve(context.Background(), "proj-1", "user-1", "what was decided?", 10)

	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	wantTypes := []ItemType{ItemTypeDocument, ItemTypeEmail, ItemTypeMeeting}
	for i, typ := range wantTypes {
		if items[i].Type != typ {
			t.Errorf("items[%d].Type = %s, want %s", i, items[i].Type, typ)
		}
	}
	if items[1].Title != "Re: kickoff" || items[1].Author != "bob@example.com" {
		t.Errorf("email mapped badly: %+v", items[1])
	}
}

func TestStructuredRetrieve_DocumentsScopedToOwner(t *testing.T) {
	mock := &mockRecordQuerier{}
	r := NewStructured(mock, log.NewNop())

	r.Retrieve(context.Background(), "proj-1", "user-1", "q", 7)

	if mock.lastDocParams.CreatedBy != "user-1" {
		t.Errorf("documents not scoped to requesting user: %+v", mock.lastDocParams)
	}
	if mock.lastDocParams.ResultLimit != 7 {
		t.Errorf("limit = %d, want 7", mock.lastDocParams.ResultLimit)
	}
}

func TestStructuredRetrieve_CollectionFailureDegrades(t *testing.T) {
	// One collection raising must not abort the others.
	now := time.Now()
	mock := &mockRecordQuerier{
		documents: []sqlc.Document{{Title: "doc", Content: "c", CreatedAt: ts(now)}},
		emailsErr: errors.New(`column "project_id" does not exist`),
		meetings:  []sqlc.Meeting{{Title: "sync", Summary: "s", ScheduledAt: ts(now)}},
	}
	r := NewStructured(mock, log.NewNop())

	items := r.Retrieve(context.Background(), "proj-1", "user-1", "q", 10)

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (documents and meetings)", len(items))
	}
	for _, item := range items {
		if item.Type == ItemTypeEmail {
			t.Errorf("unexpected email item from failed collection: %+v", item)
		}
	}
}

func TestStructuredRetrieve_AllCollectionsFail(t *testing.T) {
	mock := &mockRecordQuerier{
		documentsErr: errors.New("down"),
		emailsErr:    errors.New("down"),
		meetingsErr:  errors.New("down"),
	}
	r := NewStructured(mock, log.NewNop())

	if items := r.Retrieve(context.Background(), "p", "u", "q", 10); len(items) != 0 {
		t.Errorf("got %d items, want 0 when every collection fails", len(items))
	}
}
