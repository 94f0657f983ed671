package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PassageRepository defines the operations on the passage store.
type PassageRepository interface {
	// BulkInsert inserts multiple passages.
	BulkInsert(ctx context.Context, passages []Passage) error

	// Search performs a nearest-neighbor search over passage embeddings and
	// returns at most k hits ordered by vector similarity.
	Search(ctx context.Context, queryVector []float32, k int) ([]PassageHit, error)

	// Count returns the total number of stored passages.
	Count(ctx context.Context) (int64, error)
}

// DocumentRepository defines the operations for managing ingested documents.
type DocumentRepository interface {
	// GetBySourceHash retrieves a document by its content hash.
	// Returns nil, nil if not found.
	GetBySourceHash(ctx context.Context, hash string) (*Document, error)

	// Create inserts a new document.
	Create(ctx context.Context, doc *Document) error

	// Count returns the total number of ingested documents.
	Count(ctx context.Context) (int64, error)
}

// TransactionManager defines the interface for handling database transactions.
type TransactionManager interface {
	// RunInTx executes the given function within a transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// IngestJobPayload carries the document to be ingested asynchronously.
type IngestJobPayload struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// IngestJob is a queued asynchronous ingestion request.
type IngestJob struct {
	ID           uuid.UUID
	JobType      string
	Payload      IngestJobPayload
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IngestJobRepository defines the queue operations for asynchronous ingestion.
type IngestJobRepository interface {
	// Enqueue stores a new job with status "new".
	Enqueue(ctx context.Context, job *IngestJob) error

	// AcquireNext atomically claims the oldest "new" job, marking it
	// "processing". Returns nil, nil when the queue is empty.
	AcquireNext(ctx context.Context) (*IngestJob, error)

	// UpdateStatus records the terminal state of a job.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error
}
