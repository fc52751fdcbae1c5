// Package rag implements the retrieval-augmented query pipeline: multi-source
// context retrieval, heterogeneous-score ranking, grounded prompt assembly,
// and streaming answer generation with asynchronous turn persistence.
package rag

import "time"

// ItemType identifies which source a context item was retrieved from.
type ItemType string

const (
	ItemTypeDocument    ItemType = "document"
	ItemTypeEmail       ItemType = "email"
	ItemTypeMeeting     ItemType = "meeting"
	ItemTypeVectorChunk ItemType = "vector_chunk"
)

// Metadata keys attached to retrieved items.
const (
	// MetaSimilarity carries the raw cosine similarity of a vector match,
	// before the ranker clamps the relevance score.
	MetaSimilarity = "similarity"

	// MetaChunkIndex and MetaChunkTotal position a chunk within its source
	// document when the ingestion side recorded them.
	MetaChunkIndex = "chunk_index"
	MetaChunkTotal = "chunk_total"

	// MetaMatchedTags lists tags the ingestion side inferred for the chunk.
	MetaMatchedTags = "matched_tags"
)

// ContextItem is one retrieved fact normalized to a common shape so that
// documents, emails, meetings, and vector chunks rank and prompt uniformly.
//
// Items are created transiently per query and never persisted; each is owned
// exclusively by the request that produced it.
type ContextItem struct {
	Type      ItemType
	Source    string // free-text provenance label, e.g. "project documents"
	Title     string
	Content   string
	Author    string
	CreatedAt time.Time         // zero when the source has no timestamp
	Metadata  map[string]string // open extension map, source-specific
	Relevance float64           // 0.0-1.0, comparable across sources after ranking
}
