package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// RetrievedPassage is a grounding passage produced for a single request.
// Rank is the final position assigned by the reranker (0-indexed).
type RetrievedPassage struct {
	Text string
	Rank int
}

// Document represents one ingested source document.
type Document struct {
	ID         uuid.UUID
	Name       string
	SourceHash string
	CreatedAt  time.Time
}

// Passage is a persistable chunk of an ingested document together with its
// embedding vector.
type Passage struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Ordinal    int
	Content    string
	Embedding  pgvector.Vector
	CreatedAt  time.Time
}

// PassageHit is a passage found via nearest-neighbor search, including its
// vector-similarity score. The score is carried for logging only; downstream
// ordering comes from the reranker.
type PassageHit struct {
	ID    uuid.UUID
	Text  string
	Score float32
}
