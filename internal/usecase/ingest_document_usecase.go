package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docuchat/internal/domain"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const embedConcurrency = 4

// IngestResult reports what one ingestion run did.
type IngestResult struct {
	DocumentID   uuid.UUID
	PassageCount int
	// Skipped is true when the document content was already ingested.
	Skipped bool
}

// IngestDocumentUsecase chunks a document, embeds the chunks and stores them
// as searchable passages. It is idempotent on document content.
type IngestDocumentUsecase interface {
	Ingest(ctx context.Context, name, body string) (*IngestResult, error)
}

type ingestDocumentUsecase struct {
	docRepo     domain.DocumentRepository
	passageRepo domain.PassageRepository
	txManager   domain.TransactionManager
	hasher      domain.SourceHashPolicy
	chunker     domain.Chunker
	encoder     domain.VectorEncoder
	limiter     *rate.Limiter
	batchSize   int
	logger      *slog.Logger
}

// NewIngestDocumentUsecase creates an IngestDocumentUsecase. limiter throttles
// embedding calls during bulk ingestion; batchSize is the number of chunks
// embedded per call.
func NewIngestDocumentUsecase(
	docRepo domain.DocumentRepository,
	passageRepo domain.PassageRepository,
	txManager domain.TransactionManager,
	hasher domain.SourceHashPolicy,
	chunker domain.Chunker,
	encoder domain.VectorEncoder,
	limiter *rate.Limiter,
	batchSize int,
	logger *slog.Logger,
) IngestDocumentUsecase {
	if batchSize <= 0 {
		batchSize = 16
	}
	return &ingestDocumentUsecase{
		docRepo:     docRepo,
		passageRepo: passageRepo,
		txManager:   txManager,
		hasher:      hasher,
		chunker:     chunker,
		encoder:     encoder,
		limiter:     limiter,
		batchSize:   batchSize,
		logger:      logger,
	}
}

func (u *ingestDocumentUsecase) Ingest(ctx context.Context, name, body string) (*IngestResult, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("document body is empty")
	}

	hash := u.hasher.Compute(name, body)
	existing, err := u.docRepo.GetBySourceHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}
	if existing != nil {
		u.logger.Info("ingest_skipped",
			slog.String("name", name),
			slog.String("document_id", existing.ID.String()))
		return &IngestResult{DocumentID: existing.ID, Skipped: true}, nil
	}

	chunks, err := u.chunker.Chunk(body)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no passages")
	}

	embeddings, err := u.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &domain.Document{
		ID:         uuid.New(),
		Name:       name,
		SourceHash: hash,
		CreatedAt:  now,
	}

	passages := make([]domain.Passage, len(chunks))
	for i, c := range chunks {
		passages[i] = domain.Passage{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Ordinal:    c.Ordinal,
			Content:    c.Content,
			Embedding:  pgvector.NewVector(embeddings[i]),
			CreatedAt:  now,
		}
	}

	err = u.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := u.docRepo.Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		if err := u.passageRepo.BulkInsert(ctx, passages); err != nil {
			return fmt.Errorf("failed to insert passages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("ingest_completed",
		slog.String("name", name),
		slog.String("document_id", doc.ID.String()),
		slog.Int("passage_count", len(passages)))

	return &IngestResult{DocumentID: doc.ID, PassageCount: len(passages)}, nil
}

// embedChunks embeds chunk contents in rate-limited parallel batches and
// returns one vector per chunk, in chunk order.
func (u *ingestDocumentUsecase) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}

	embeddings := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(contents); start += u.batchSize {
		end := start + u.batchSize
		if end > len(contents) {
			end = len(contents)
		}
		g.Go(func() error {
			if u.limiter != nil {
				if err := u.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			vectors, err := u.encoder.Encode(gctx, contents[start:end])
			if err != nil {
				return fmt.Errorf("failed to encode passages: %w", err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("expected %d embeddings, got %d", end-start, len(vectors))
			}
			copy(embeddings[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}
