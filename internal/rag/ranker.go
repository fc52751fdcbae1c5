package rag

import "sort"

const (
	// MaxRankedItems caps the merged candidate list passed to the prompt.
	MaxRankedItems = 20

	// StructuredBaseScore is the fixed relevance assigned to structured-store
	// items: known to be on-topic by virtue of project scoping, but not
	// ranked by semantic closeness.
	StructuredBaseScore = 0.5

	// Vector similarity scores are clamped to [MinVectorScore, MaxVectorScore]
	// so even a weak match outranks nothing and never scores zero.
	MinVectorScore = 0.1
	MaxVectorScore = 1.0
)

// Rank merges structured and vector retrieval results into one list ordered
// by relevance descending, truncated to MaxRankedItems.
//
// The sort is stable: among equal scores, retrieval order is preserved
// (structured before vector, each in its retriever's order). Rank is a pure
// function of its inputs; the input slices are not modified.
func Rank(structured, vector []ContextItem) []ContextItem {
	merged := make([]ContextItem, 0, len(structured)+len(vector))

	for _, item := range structured {
		item.Relevance = StructuredBaseScore
		merged = append(merged, item)
	}
	for _, item := range vector {
		item.Relevance = clampScore(item.Relevance)
		merged = append(merged, item)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Relevance > merged[j].Relevance
	})

	if len(merged) > MaxRankedItems {
		merged = merged[:MaxRankedItems]
	}
	return merged
}

func clampScore(score float64) float64 {
	if score < MinVectorScore {
		return MinVectorScore
	}
	if score > MaxVectorScore {
		return MaxVectorScore
	}
	return score
}
