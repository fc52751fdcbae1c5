//go:build integration

package session_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/finch-ai/finch/internal/log"
	"github.com/finch-ai/finch/internal/session"
	"github.com/finch-ai/finch/internal/sqlc"
	"github.com/finch-ai/finch/internal/testutil"
)

func TestStoreRoundTrip_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.New(sqlc.New(testDB.Pool), log.NewNop())

	id := uuid.New()
	sess, err := store.GetOrCreate(ctx, id, "user-1", "proj-1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if sess.ID != id || sess.Ended() {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// Second call returns the same session.
	again, err := store.GetOrCreate(ctx, id, "user-1", "proj-1")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if !again.StartedAt.Equal(sess.StartedAt) {
		t.Errorf("started_at changed: %v vs %v", sess.StartedAt, again.StartedAt)
	}

	if ok := store.AppendTurn(ctx, id, "user-1", session.RoleUser, "Pat", "first question"); !ok {
		t.Fatal("AppendTurn(user) failed")
	}
	if ok := store.AppendTurn(ctx, id, "user-1", session.RoleAssistant, "Finch", "first answer"); !ok {
		t.Fatal("AppendTurn(assistant) failed")
	}

	turns, err := store.RecentTurns(ctx, id, "user-1", 10)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Message != "first question" || turns[1].Message != "first answer" {
		t.Errorf("turns out of chronological order: %+v", turns)
	}

	// Turns are scoped by user.
	other, err := store.RecentTurns(ctx, id, "someone-else", 10)
	if err != nil {
		t.Fatalf("RecentTurns(other user) failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("turns leaked across users: %+v", other)
	}

	if err := store.Close(ctx, id); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	closed, err := store.GetOrCreate(ctx, id, "user-1", "proj-1")
	if err != nil {
		t.Fatalf("GetOrCreate after close failed: %v", err)
	}
	if !closed.Ended() {
		t.Error("session not marked ended after Close")
	}

	// Close is idempotent.
	if err := store.Close(ctx, id); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestStoreList_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.New(sqlc.New(testDB.Pool), log.NewNop())

	for range 3 {
		if _, err := store.GetOrCreate(ctx, uuid.New(), "user-1", "proj-1"); err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
	}
	if _, err := store.GetOrCreate(ctx, uuid.New(), "user-2", "proj-1"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	sessions, err := store.List(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("got %d sessions, want 3", len(sessions))
	}
	for _, sess := range sessions {
		if sess.UserID != "user-1" {
			t.Errorf("session from wrong user: %+v", sess)
		}
	}
}
