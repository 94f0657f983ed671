package domain

import "context"

// RankedIndex points back into the candidate slice passed to Rerank, with the
// cross-encoder relevance score assigned to that candidate.
type RankedIndex struct {
	Index int
	Score float32
}

// Reranker defines the interface for second-stage cross-encoder reranking:
// coarse recall comes from vector search, precise relevance ordering from the
// reranker. Implementations call an external scoring service.
type Reranker interface {
	// Rerank orders candidates by relevance to the query, most relevant
	// first, returning at most topN entries. The returned indices refer to
	// positions in the candidates slice.
	Rerank(ctx context.Context, query string, candidates []string, topN int) ([]RankedIndex, error)

	// ModelName returns the model identifier for logging.
	ModelName() string
}
