package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"docuchat/internal/domain"
)

// RetrievalConfig holds the two-stage retrieval parameters.
type RetrievalConfig struct {
	// TopK is the number of nearest-neighbor candidates pulled from the
	// passage store.
	TopK int
	// TopN is the number of passages kept after reranking. TopN <= TopK.
	TopN int
}

// RetrieveContextUsecase finds and ranks the passages most relevant to a
// standalone query: coarse recall via vector search, precise ordering via a
// cross-encoder reranker.
type RetrieveContextUsecase interface {
	Execute(ctx context.Context, query string) ([]domain.RetrievedPassage, error)
}

type retrieveContextUsecase struct {
	encoder  domain.VectorEncoder
	passages domain.PassageRepository
	reranker domain.Reranker
	cfg      RetrievalConfig
	logger   *slog.Logger
}

// NewRetrieveContextUsecase creates a RetrieveContextUsecase.
func NewRetrieveContextUsecase(
	encoder domain.VectorEncoder,
	passages domain.PassageRepository,
	reranker domain.Reranker,
	cfg RetrievalConfig,
	logger *slog.Logger,
) RetrieveContextUsecase {
	return &retrieveContextUsecase{
		encoder:  encoder,
		passages: passages,
		reranker: reranker,
		cfg:      cfg,
		logger:   logger,
	}
}

func (u *retrieveContextUsecase) Execute(ctx context.Context, query string) ([]domain.RetrievedPassage, error) {
	embeddings, err := u.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}

	hits, err := u.passages.Search(ctx, embeddings[0], u.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}
	if len(hits) == 0 {
		u.logger.Info("retrieval_empty", slog.String("query", truncate(query, 100)))
		return []domain.RetrievedPassage{}, nil
	}

	candidates := make([]string, len(hits))
	for i, hit := range hits {
		candidates[i] = hit.Text
	}

	topN := u.cfg.TopN
	if topN > len(candidates) {
		topN = len(candidates)
	}

	ranked, err := u.reranker.Rerank(ctx, query, candidates, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank candidates: %w", err)
	}

	passages := make([]domain.RetrievedPassage, 0, len(ranked))
	for rank, r := range ranked {
		if r.Index < 0 || r.Index >= len(candidates) {
			return nil, fmt.Errorf("invalid rerank index %d for %d candidates", r.Index, len(candidates))
		}
		passages = append(passages, domain.RetrievedPassage{
			Text: candidates[r.Index],
			Rank: rank,
		})
	}

	u.logger.Info("retrieval_completed",
		slog.Int("candidate_count", len(hits)),
		slog.Int("passage_count", len(passages)))

	return passages, nil
}
