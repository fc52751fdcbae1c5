package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/finch-ai/finch/internal/memory"
	"github.com/finch-ai/finch/internal/session"
	"github.com/finch-ai/finch/internal/sqlc"
)

const (
	// AssistantName is recorded as sender_name on persisted assistant turns.
	AssistantName = "Finch"

	// NoContextMessage is yielded verbatim when ranking produced zero items.
	// The model is not invoked in that case: an ungrounded answer would be a
	// hallucination, and the call costs money.
	NoContextMessage = "I couldn't find any relevant information about this project to answer your question. Try adding documents, emails, or meeting notes to the project first."

	// persistTimeout bounds the detached assistant-turn write after the
	// stream has completed.
	persistTimeout = 10 * time.Second
)

// errStreamConsumer marks an error that originated in the caller's chunk
// callback (typically a disconnected client) rather than in the model.
var errStreamConsumer = errors.New("stream consumer failed")

// SessionStore defines the session persistence the pipeline depends on.
type SessionStore interface {
	GetOrCreate(ctx context.Context, id uuid.UUID, userID, projectID string) (*session.Session, error)
	RecentTurns(ctx context.Context, id uuid.UUID, userID string, limit int32) ([]session.Turn, error)
	AppendTurn(ctx context.Context, id uuid.UUID, userID, role, senderName, message string) bool
}

// StructuredRetriever yields context items from the relational record store.
type StructuredRetriever interface {
	Retrieve(ctx context.Context, projectID, userID, query string, maxResults int32) []ContextItem
}

// VectorRetriever yields context items from the vector index.
type VectorRetriever interface {
	Retrieve(ctx context.Context, projectID, userID, query string, maxResults int32) []ContextItem
}

// ProjectQuerier defines the project metadata reads used for prompt facts
// and summaries.
type ProjectQuerier interface {
	GetProject(ctx context.Context, id string) (sqlc.Project, error)
	CountProjectDocuments(ctx context.Context, arg sqlc.CountProjectDocumentsParams) (int64, error)
	CountProjectEmails(ctx context.Context, projectID string) (int64, error)
	CountProjectMeetings(ctx context.Context, projectID string) (int64, error)
}

// Config carries the pipeline's collaborators. All collaborators are
// injected at construction time so tests can substitute fakes.
type Config struct {
	Sessions   SessionStore
	Structured StructuredRetriever
	Vector     VectorRetriever
	Model      ModelClient
	Extractor  memory.Extractor
	Projects   ProjectQuerier

	// MaxResultsPerSource caps each retriever collection before ranking.
	MaxResultsPerSource int32

	Logger *slog.Logger // nil = slog.Default()
}

func (c *Config) validate() error {
	switch {
	case c.Sessions == nil:
		return errors.New("rag: nil session store")
	case c.Structured == nil:
		return errors.New("rag: nil structured retriever")
	case c.Vector == nil:
		return errors.New("rag: nil vector retriever")
	case c.Model == nil:
		return errors.New("rag: nil model client")
	case c.Extractor == nil:
		return errors.New("rag: nil context extractor")
	case c.Projects == nil:
		return errors.New("rag: nil project querier")
	case c.MaxResultsPerSource <= 0:
		return fmt.Errorf("rag: max results per source must be positive, got %d", c.MaxResultsPerSource)
	}
	return nil
}

// Pipeline answers project questions: it resolves the session, derives
// conversational context, fans out to both retrievers, ranks the merged
// candidates, and streams a grounded answer, persisting the assistant turn
// after the stream completes.
//
// Pipeline is safe for concurrent use by multiple goroutines.
type Pipeline struct {
	sessions   SessionStore
	structured StructuredRetriever
	vector     VectorRetriever
	model      ModelClient
	extractor  memory.Extractor
	projects   ProjectQuerier
	maxResults int32
	logger     *slog.Logger

	// wg tracks detached persistence tasks so shutdown and tests can wait
	// for them instead of leaking goroutines.
	wg sync.WaitGroup
}

// NewPipeline validates cfg and builds a Pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sessions:   cfg.Sessions,
		structured: cfg.Structured,
		vector:     cfg.Vector,
		model:      cfg.Model,
		extractor:  cfg.Extractor,
		projects:   cfg.Projects,
		maxResults: cfg.MaxResultsPerSource,
		logger:     logger,
	}, nil
}

// StreamAnswer answers question against the project's context, forwarding
// incremental text chunks to onChunk in presentation order. One call is one
// model invocation; the resulting stream is consumed exactly once.
//
// Failure semantics: retrieval failures degrade to fewer context items; zero
// context yields NoContextMessage without a model call; a model failure
// yields a single apologetic chunk and a nil return. Only a canceled context
// or an onChunk error surfaces as a non-nil error, and in both cases no
// assistant turn is persisted — a turn is written only after the full answer
// was delivered.
func (p *Pipeline) StreamAnswer(ctx context.Context, question, projectID, userID string, sessionID uuid.UUID, onChunk StreamFunc) error {
	if question == "" {
		return errors.New("rag: empty question")
	}

	// Session resolution and history are best-effort: a session store outage
	// downgrades the query to stateless, it does not fail it.
	var turns []session.Turn
	haveSession := false
	if sess, err := p.sessions.GetOrCreate(ctx, sessionID, userID, projectID); err != nil {
		p.logger.Warn("session resolution failed, answering without history",
			"session_id", sessionID, "error", err)
	} else {
		haveSession = true
		turns, err = p.sessions.RecentTurns(ctx, sess.ID, userID, HistoryWindow)
		if err != nil {
			p.logger.Warn("history load failed, answering without history",
				"session_id", sessionID, "error", err)
			turns = nil
		}
	}

	convCtx := p.extractor.Extract(turns, question)

	// The two retrievers are independent round trips; fan out and join.
	var structuredItems, vectorItems []ContextItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		structuredItems = p.structured.Retrieve(gctx, projectID, userID, question, p.maxResults)
		return nil
	})
	g.Go(func() error {
		vectorItems = p.vector.Retrieve(gctx, projectID, userID, question, p.maxResults)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	ranked := Rank(structuredItems, vectorItems)
	if len(ranked) == 0 {
		p.logger.Info("no context found, short-circuiting",
			"project_id", projectID, "session_id", sessionID)
		return onChunk(ctx, NoContextMessage)
	}

	project := ProjectInfo{ID: projectID}
	if row, err := p.projects.GetProject(ctx, projectID); err != nil {
		p.logger.Warn("project lookup failed, prompting with id only",
			"project_id", projectID, "error", err)
	} else {
		project.Name = row.Name
		if row.Overview != nil {
			project.Overview = *row.Overview
		}
	}

	prompt := buildPrompt(question, project, ranked, convCtx, turns)
	p.logger.Debug("invoking model",
		"project_id", projectID,
		"session_id", sessionID,
		"context_items", len(ranked),
		"history_turns", len(turns),
		"prompt_length", len(prompt))

	answer, err := p.model.Generate(ctx, prompt, func(ctx context.Context, text string) error {
		if err := onChunk(ctx, text); err != nil {
			return fmt.Errorf("%w: %v", errStreamConsumer, err)
		}
		return nil
	})
	if err != nil {
		// A gone consumer or canceled request gets silence, not an apology,
		// and no partial turn is persisted.
		if errors.Is(err, errStreamConsumer) || ctx.Err() != nil {
			p.logger.Info("stream aborted by consumer",
				"session_id", sessionID, "error", err)
			return err
		}
		p.logger.Error("generation failed",
			"project_id", projectID, "session_id", sessionID, "error", err)
		return onChunk(ctx, fmt.Sprintf(
			"I'm sorry, something went wrong while generating the answer: %v. Please try again.", err))
	}

	if haveSession {
		p.persistAssistantTurn(ctx, sessionID, userID, answer)
	}
	return nil
}

// SummarizeProject reports the project's record counts and stored overview.
// No retrieval ranking or model generation is involved.
func (p *Pipeline) SummarizeProject(ctx context.Context, projectID, userID string) (string, error) {
	row, err := p.projects.GetProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("failed to load project %q: %w", projectID, err)
	}

	var docs, emails, meetings int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = p.projects.CountProjectDocuments(gctx, sqlc.CountProjectDocumentsParams{
			ProjectID: projectID,
			CreatedBy: userID,
		})
		return err
	})
	g.Go(func() error {
		var err error
		emails, err = p.projects.CountProjectEmails(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		meetings, err = p.projects.CountProjectMeetings(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("failed to count project records: %w", err)
	}

	summary := fmt.Sprintf("Project %s contains %d document(s), %d email(s), and %d meeting(s).",
		row.Name, docs, emails, meetings)
	if row.Overview != nil && *row.Overview != "" {
		summary += "\n\nOverview: " + *row.Overview
	}
	return summary, nil
}

// persistAssistantTurn writes the completed answer as a detached task. The
// task outlives the request context (a disconnecting client must not cancel
// a write for an answer it already received in full) but is bounded by
// persistTimeout; AppendTurn logs its own failures.
func (p *Pipeline) persistAssistantTurn(ctx context.Context, sessionID uuid.UUID, userID, answer string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		p.sessions.AppendTurn(pctx, sessionID, userID, session.RoleAssistant, AssistantName, answer)
	}()
}

// Wait blocks until all detached persistence tasks have finished. Call it
// on shutdown (and in tests) so no write is abandoned mid-flight.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
