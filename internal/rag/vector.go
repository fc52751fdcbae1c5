package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/finch-ai/finch/internal/sqlc"
)

// vectorSearchTimeout bounds the embed-plus-search round trip so a slow
// vector query degrades instead of blocking the whole pipeline.
const vectorSearchTimeout = 10 * time.Second

// ChunkQuerier defines the vector-index operations the Vector retriever
// depends on.
type ChunkQuerier interface {
	SearchChunks(ctx context.Context, arg sqlc.SearchChunksParams) ([]sqlc.SearchChunksRow, error)
	SearchChunksAll(ctx context.Context, arg sqlc.SearchChunksAllParams) ([]sqlc.SearchChunksAllRow, error)
}

// Vector retrieves semantically similar knowledge chunks: it embeds the
// query text and runs a similarity search against the pgvector index,
// filtered by {user_id, project_id} so results never leak across project or
// user boundaries.
//
// Vector is safe for concurrent use by multiple goroutines.
type Vector struct {
	querier  ChunkQuerier
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewVector creates a vector retriever. A nil logger uses slog.Default().
func NewVector(querier ChunkQuerier, embedder ai.Embedder, logger *slog.Logger) *Vector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vector{querier: querier, embedder: embedder, logger: logger}
}

// Retrieve embeds the query and returns the most similar chunks scoped to
// the given user and project, as vector_chunk context items carrying the raw
// similarity as their relevance score (clamping happens in Rank).
//
// Embedding-provider or index failure degrades to an empty result, logged at
// warning level — it never aborts the query, so Retrieve has no error return.
func (r *Vector) Retrieve(ctx context.Context, projectID, userID, query string, maxResults int32) []ContextItem {
	ctx, cancel := context.WithTimeout(ctx, vectorSearchTimeout)
	defer cancel()

	embedding, err := r.embed(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed, continuing without vector results",
			"project_id", projectID, "error", err)
		return nil
	}

	rows, err := r.querier.SearchChunks(ctx, sqlc.SearchChunksParams{
		QueryEmbedding: embedding,
		UserID:         userID,
		ProjectID:      projectID,
		ResultLimit:    maxResults,
	})
	if err != nil {
		r.logger.Warn("vector search failed, continuing without vector results",
			"project_id", projectID, "error", err)
		return nil
	}

	items := make([]ContextItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, chunkToItem(
			row.Content, row.Metadata, row.CreatedAt.Time, row.Similarity, r.logger))
	}

	r.logger.Debug("vector retrieval complete", "project_id", projectID, "chunks", len(items))
	return items
}

// SearchAll runs an unfiltered similarity search across all tenants. It
// exists only for operator diagnostics (`finch search --all`) and must never
// be called from the production query path.
func (r *Vector) SearchAll(ctx context.Context, query string, maxResults int32) ([]ContextItem, error) {
	embedding, err := r.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := r.querier.SearchChunksAll(ctx, sqlc.SearchChunksAllParams{
		QueryEmbedding: embedding,
		ResultLimit:    maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("unfiltered vector search failed: %w", err)
	}

	items := make([]ContextItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, chunkToItem(
			row.Content, row.Metadata, row.CreatedAt.Time, row.Similarity, r.logger))
	}
	return items, nil
}

func (r *Vector) embed(ctx context.Context, query string) (*pgvector.Vector, error) {
	resp, err := r.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(query, nil)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}
	vec := pgvector.NewVector(resp.Embeddings[0].Embedding)
	return &vec, nil
}

// chunkToItem maps one index row to a vector_chunk context item. Metadata is
// parsed best-effort; malformed JSON degrades to an empty map.
func chunkToItem(content string, metadata []byte, createdAt time.Time, similarity float64, logger *slog.Logger) ContextItem {
	meta := make(map[string]string)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &meta); err != nil {
			logger.Warn("failed to parse chunk metadata", "error", err)
			meta = make(map[string]string)
		}
	}

	title := meta["title"]
	if title == "" {
		title = "knowledge chunk"
	}
	author := meta["author"]

	meta[MetaSimilarity] = fmt.Sprintf("%.4f", similarity)

	return ContextItem{
		Type:      ItemTypeVectorChunk,
		Source:    "knowledge base",
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: createdAt,
		Metadata:  meta,
		Relevance: similarity,
	}
}
