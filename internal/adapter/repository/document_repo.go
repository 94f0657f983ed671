package repository

import (
	"context"
	"errors"
	"fmt"

	"docuchat/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) domain.DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) getExecutor(ctx context.Context) dbExecutor {
	if tx := ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *documentRepository) GetBySourceHash(ctx context.Context, hash string) (*domain.Document, error) {
	query := `
		SELECT id, name, source_hash, created_at
		FROM documents
		WHERE source_hash = $1
	`
	var doc domain.Document
	err := r.getExecutor(ctx).QueryRow(ctx, query, hash).Scan(&doc.ID, &doc.Name, &doc.SourceHash, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document by source hash: %w", err)
	}
	return &doc, nil
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, name, source_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, doc.ID, doc.Name, doc.SourceHash, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.getExecutor(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
