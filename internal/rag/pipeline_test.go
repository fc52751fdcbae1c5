package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/finch-ai/finch/internal/log"
	"github.com/finch-ai/finch/internal/memory"
	"github.com/finch-ai/finch/internal/session"
	"github.com/finch-ai/finch/internal/sqlc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSessionStore implements SessionStore for testing.
type fakeSessionStore struct {
	mu sync.Mutex

	getOrCreateErr error
	recentTurnsErr error
	turns          []session.Turn
	appendOK       bool

	appendCalls   int
	lastAppend    struct{ role, sender, message string }
	getOrCreateID uuid.UUID
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{appendOK: true}
}

func (f *fakeSessionStore) GetOrCreate(ctx context.Context, id uuid.UUID, userID, projectID string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getOrCreateErr != nil {
		return nil, f.getOrCreateErr
	}
	f.getOrCreateID = id
	return &session.Session{ID: id, UserID: userID, ProjectID: projectID}, nil
}

func (f *fakeSessionStore) RecentTurns(ctx context.Context, id uuid.UUID, userID string, limit int32) ([]session.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recentTurnsErr != nil {
		return nil, f.recentTurnsErr
	}
	return f.turns, nil
}

func (f *fakeSessionStore) AppendTurn(ctx context.Context, id uuid.UUID, userID, role, senderName, message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	f.lastAppend.role = role
	f.lastAppend.sender = senderName
	f.lastAppend.message = message
	return f.appendOK
}

func (f *fakeSessionStore) appended() (int, string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendCalls, f.lastAppend.role, f.lastAppend.message
}

// stubRetriever satisfies both retriever interfaces.
type stubRetriever struct {
	items []ContextItem
	calls int
}

func (s *stubRetriever) Retrieve(ctx context.Context, projectID, userID, query string, maxResults int32) []ContextItem {
	s.calls++
	return s.items
}

// fakeModel implements ModelClient: it streams the configured chunks and
// returns their concatenation, or fails without streaming.
type fakeModel struct {
	chunks      []string
	generateErr error

	calls      int
	lastPrompt string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string, onChunk StreamFunc) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.generateErr != nil {
		return "", f.generateErr
	}
	var full strings.Builder
	for _, chunk := range f.chunks {
		if err := onChunk(ctx, chunk); err != nil {
			return "", err
		}
		full.WriteString(chunk)
	}
	return full.String(), nil
}

// fakeProjects implements ProjectQuerier.
type fakeProjects struct {
	project    sqlc.Project
	projectErr error

	docs, emails, meetings int64
	countErr               error
}

func (f *fakeProjects) GetProject(ctx context.Context, id string) (sqlc.Project, error) {
	if f.projectErr != nil {
		return sqlc.Project{}, f.projectErr
	}
	return f.project, nil
}

func (f *fakeProjects) CountProjectDocuments(ctx context.Context, arg sqlc.CountProjectDocumentsParams) (int64, error) {
	return f.docs, f.countErr
}

func (f *fakeProjects) CountProjectEmails(ctx context.Context, projectID string) (int64, error) {
	return f.emails, f.countErr
}

func (f *fakeProjects) CountProjectMeetings(ctx context.Context, projectID string) (int64, error) {
	return f.meetings, f.countErr
}

type pipelineFixture struct {
	pipeline   *Pipeline
	sessions   *fakeSessionStore
	structured *stubRetriever
	vector     *stubRetriever
	model      *fakeModel
	projects   *fakeProjects
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		sessions:   newFakeSessionStore(),
		structured: &stubRetriever{},
		vector:     &stubRetriever{},
		model:      &fakeModel{chunks: []string{"The budget ", "was approved."}},
		projects:   &fakeProjects{project: sqlc.Project{ID: "proj-1", Name: "Atlas"}},
	}
	p, err := NewPipeline(Config{
		Sessions:            f.sessions,
		Structured:          f.structured,
		Vector:              f.vector,
		Model:               f.model,
		Extractor:           memory.NewHeuristic(log.NewNop()),
		Projects:            f.projects,
		MaxResultsPerSource: 10,
		Logger:              log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	f.pipeline = p
	return f
}

func collectChunks(chunks *[]string) StreamFunc {
	return func(ctx context.Context, text string) error {
		*chunks = append(*chunks, text)
		return nil
	}
}

func TestStreamAnswer(t *testing.T) {
	f := newFixture(t)
	f.structured.items = []ContextItem{
		{Type: ItemTypeDocument, Title: "Alice's memo", Content: "Alice decided to approve the budget."},
	}
	f.vector.items = []ContextItem{
		{Type: ItemTypeVectorChunk, Title: "budget approval", Content: "budget approval went through", Relevance: 0.9},
	}

	var chunks []string
	err := f.pipeline.StreamAnswer(context.Background(),
		"What did Alice decide about the budget?", "proj-1", "user-1", uuid.New(),
		collectChunks(&chunks))
	if err != nil {
		t.Fatalf("StreamAnswer failed: %v", err)
	}
	f.pipeline.Wait()

	if got := strings.Join(chunks, ""); got != "The budget was approved." {
		t.Errorf("streamed answer = %q", got)
	}
	if f.structured.calls != 1 || f.vector.calls != 1 {
		t.Errorf("retriever calls = %d/%d, want 1/1", f.structured.calls, f.vector.calls)
	}
	// Both retrieved excerpts must reach the model.
	for _, want := range []string{"Alice decided to approve the budget.", "budget approval went through"} {
		if !strings.Contains(f.model.lastPrompt, want) {
			t.Errorf("prompt missing excerpt %q", want)
		}
	}
	calls, role, message := f.sessions.appended()
	if calls != 1 {
		t.Fatalf("append calls = %d, want 1", calls)
	}
	if role != session.RoleAssistant {
		t.Errorf("persisted role = %q, want assistant", role)
	}
	if message != "The budget was approved." {
		t.Errorf("persisted message = %q", message)
	}
}

func TestStreamAnswer_NoContextShortCircuits(t *testing.T) {
	f := newFixture(t)

	var chunks []string
	err := f.pipeline.StreamAnswer(context.Background(),
		"anything?", "proj-1", "user-1", uuid.New(), collectChunks(&chunks))
	if err != nil {
		t.Fatalf("StreamAnswer failed: %v", err)
	}
	f.pipeline.Wait()

	if len(chunks) != 1 || chunks[0] != NoContextMessage {
		t.Errorf("chunks = %v, want exactly the fixed no-context message", chunks)
	}
	if f.model.calls != 0 {
		t.Errorf("model invoked %d times, want 0", f.model.calls)
	}
	if calls, _, _ := f.sessions.appended(); calls != 0 {
		t.Errorf("append calls = %d, want 0 for the short-circuit message", calls)
	}
}

func TestStreamAnswer_GenerationFailure(t *testing.T) {
	f := newFixture(t)
	f.structured.items = []ContextItem{{Type: ItemTypeDocument, Title: "d", Content: "c"}}
	f.model.generateErr = errors.New("model overloaded")

	var chunks []string
	err := f.pipeline.StreamAnswer(context.Background(),
		"q", "proj-1", "user-1", uuid.New(), collectChunks(&chunks))
	if err != nil {
		t.Fatalf("generation failure must not surface as an error: %v", err)
	}
	f.pipeline.Wait()

	if len(chunks) != 1 {
		t.Fatalf("chunks = %v, want a single apologetic chunk", chunks)
	}
	if !strings.Contains(chunks[0], "model overloaded") {
		t.Errorf("error chunk %q does not describe the failure", chunks[0])
	}
	if calls, _, _ := f.sessions.appended(); calls != 0 {
		t.Errorf("append calls = %d, want 0 after generation failure", calls)
	}
}

func TestStreamAnswer_ConsumerAbortSkipsPersistence(t *testing.T) {
	// Client disconnects after the first chunk: generation stops and no
	// partial assistant turn is written.
	f := newFixture(t)
	f.structured.items = []ContextItem{{Type: ItemTypeDocument, Title: "d", Content: "c"}}

	disconnect := errors.New("client went away")
	var received []string
	err := f.pipeline.StreamAnswer(context.Background(),
		"q", "proj-1", "user-1", uuid.New(),
		func(ctx context.Context, text string) error {
			received = append(received, text)
			return disconnect
		})
	if err == nil {
		t.Fatal("expected error when the consumer aborts")
	}
	f.pipeline.Wait()

	if len(received) != 1 {
		t.Errorf("received %d chunks after abort, want 1", len(received))
	}
	if calls, _, _ := f.sessions.appended(); calls != 0 {
		t.Errorf("append calls = %d, want 0 after partial delivery", calls)
	}
}

func TestStreamAnswer_AppendFailureDoesNotAffectStream(t *testing.T) {
	f := newFixture(t)
	f.structured.items = []ContextItem{{Type: ItemTypeDocument, Title: "d", Content: "c"}}
	f.sessions.appendOK = false

	var chunks []string
	err := f.pipeline.StreamAnswer(context.Background(),
		"q", "proj-1", "user-1", uuid.New(), collectChunks(&chunks))
	if err != nil {
		t.Fatalf("persistence failure leaked out of StreamAnswer: %v", err)
	}
	f.pipeline.Wait()

	if got := strings.Join(chunks, ""); got != "The budget was approved." {
		t.Errorf("answer not fully delivered: %q", got)
	}
	if calls, _, _ := f.sessions.appended(); calls != 1 {
		t.Errorf("append calls = %d, want 1 attempt", calls)
	}
}

func TestStreamAnswer_SessionFailureDegrades(t *testing.T) {
	// A session store outage downgrades the query to stateless; the answer
	// still streams but nothing is persisted.
	f := newFixture(t)
	f.structured.items = []ContextItem{{Type: ItemTypeDocument, Title: "d", Content: "c"}}
	f.sessions.getOrCreateErr = errors.New("sessions table locked")

	var chunks []string
	err := f.pipeline.StreamAnswer(context.Background(),
		"q", "proj-1", "user-1", uuid.New(), collectChunks(&chunks))
	if err != nil {
		t.Fatalf("StreamAnswer failed: %v", err)
	}
	f.pipeline.Wait()

	if len(chunks) == 0 {
		t.Error("no answer delivered despite session degradation")
	}
	if calls, _, _ := f.sessions.appended(); calls != 0 {
		t.Errorf("append calls = %d, want 0 without a resolved session", calls)
	}
}

func TestStreamAnswer_HistoryReachesExtractorAndPrompt(t *testing.T) {
	f := newFixture(t)
	f.structured.items = []ContextItem{{Type: ItemTypeDocument, Title: "d", Content: "c"}}
	f.sessions.turns = []session.Turn{
		{Role: session.RoleUser, Message: "John owns the Q1 report"},
	}

	var chunks []string
	err := f.pipeline.StreamAnswer(context.Background(),
		"What is his deadline?", "proj-1", "user-1", uuid.New(), collectChunks(&chunks))
	if err != nil {
		t.Fatalf("StreamAnswer failed: %v", err)
	}
	f.pipeline.Wait()

	if !strings.Contains(f.model.lastPrompt, "John owns the Q1 report") {
		t.Error("prompt missing the prior turn")
	}
	if !strings.Contains(f.model.lastPrompt, "likely refer to John") {
		t.Error("prompt missing the pronoun resolution note")
	}
}

func TestStreamAnswer_EmptyQuestion(t *testing.T) {
	f := newFixture(t)

	if err := f.pipeline.StreamAnswer(context.Background(),
		"", "proj-1", "user-1", uuid.New(), collectChunks(new([]string))); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestSummarizeProject(t *testing.T) {
	f := newFixture(t)
	overview := "infra revamp for Q2"
	f.projects.project = sqlc.Project{ID: "proj-1", Name: "Atlas", Overview: &overview}
	f.projects.docs, f.projects.emails, f.projects.meetings = 3, 5, 2

	summary, err := f.pipeline.SummarizeProject(context.Background(), "proj-1", "user-1")
	if err != nil {
		t.Fatalf("SummarizeProject failed: %v", err)
	}

	for _, want := range []string{"Atlas", "3 document(s)", "5 email(s)", "2 meeting(s)", "infra revamp for Q2"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q: %s", want, summary)
		}
	}
}

func TestSummarizeProject_UnknownProject(t *testing.T) {
	f := newFixture(t)
	f.projects.projectErr = errors.New("no rows in result set")

	if _, err := f.pipeline.SummarizeProject(context.Background(), "nope", "user-1"); err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	valid := func() Config {
		return Config{
			Sessions:            newFakeSessionStore(),
			Structured:          &stubRetriever{},
			Vector:              &stubRetriever{},
			Model:               &fakeModel{},
			Extractor:           memory.NewHeuristic(log.NewNop()),
			Projects:            &fakeProjects{},
			MaxResultsPerSource: 10,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil sessions", func(c *Config) { c.Sessions = nil }},
		{"nil structured", func(c *Config) { c.Structured = nil }},
		{"nil vector", func(c *Config) { c.Vector = nil }},
		{"nil model", func(c *Config) { c.Model = nil }},
		{"nil extractor", func(c *Config) { c.Extractor = nil }},
		{"nil projects", func(c *Config) { c.Projects = nil }},
		{"zero max results", func(c *Config) { c.MaxResultsPerSource = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if _, err := NewPipeline(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := valid()
	if _, err := NewPipeline(cfg); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
