package usecase_test

import (
	"context"
	"errors"
	"testing"

	"docuchat/internal/domain"
	"docuchat/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func retrievalConfig() usecase.RetrievalConfig {
	return usecase.RetrievalConfig{TopK: 5, TopN: 5}
}

func TestRetrieveContext_RerankedOrder(t *testing.T) {
	encoder := new(MockVectorEncoder)
	passages := new(MockPassageRepository)
	reranker := new(MockReranker)

	queryVec := []float32{0.1, 0.2, 0.3}
	encoder.On("Encode", mock.Anything, []string{"refund policy"}).
		Return([][]float32{queryVec}, nil)

	hits := []domain.PassageHit{
		{ID: uuid.New(), Text: "P1", Score: 0.9},
		{ID: uuid.New(), Text: "P2", Score: 0.8},
		{ID: uuid.New(), Text: "P3", Score: 0.7},
	}
	passages.On("Search", mock.Anything, queryVec, 5).Return(hits, nil)

	// Reranker promotes P2 over P1.
	reranker.On("Rerank", mock.Anything, "refund policy", []string{"P1", "P2", "P3"}, 3).
		Return([]domain.RankedIndex{{Index: 1, Score: 0.95}, {Index: 0, Score: 0.85}, {Index: 2, Score: 0.75}}, nil)

	uc := usecase.NewRetrieveContextUsecase(encoder, passages, reranker, retrievalConfig(), discardLogger())

	result, err := uc.Execute(context.Background(), "refund policy")
	require.NoError(t, err)

	require.Len(t, result, 3)
	assert.Equal(t, "P2", result[0].Text)
	assert.Equal(t, "P1", result[1].Text)
	assert.Equal(t, "P3", result[2].Text)
	for i, p := range result {
		assert.Equal(t, i, p.Rank)
	}
}

func TestRetrieveContext_NoCandidates_SkipsReranker(t *testing.T) {
	encoder := new(MockVectorEncoder)
	passages := new(MockPassageRepository)
	reranker := new(MockReranker)

	queryVec := []float32{0.1}
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{queryVec}, nil)
	passages.On("Search", mock.Anything, queryVec, 5).Return([]domain.PassageHit{}, nil)

	uc := usecase.NewRetrieveContextUsecase(encoder, passages, reranker, retrievalConfig(), discardLogger())

	result, err := uc.Execute(context.Background(), "anything")
	require.NoError(t, err)

	assert.Empty(t, result)
	reranker.AssertNotCalled(t, "Rerank", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieveContext_TopNClampedToCandidateCount(t *testing.T) {
	encoder := new(MockVectorEncoder)
	passages := new(MockPassageRepository)
	reranker := new(MockReranker)

	queryVec := []float32{0.1}
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{queryVec}, nil)
	passages.On("Search", mock.Anything, queryVec, 5).Return([]domain.PassageHit{
		{ID: uuid.New(), Text: "only one", Score: 0.5},
	}, nil)
	reranker.On("Rerank", mock.Anything, mock.Anything, []string{"only one"}, 1).
		Return([]domain.RankedIndex{{Index: 0, Score: 0.6}}, nil)

	uc := usecase.NewRetrieveContextUsecase(encoder, passages, reranker, retrievalConfig(), discardLogger())

	result, err := uc.Execute(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestRetrieveContext_EncoderFailure(t *testing.T) {
	encoder := new(MockVectorEncoder)
	passages := new(MockPassageRepository)
	reranker := new(MockReranker)

	encoder.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("embedder down"))

	uc := usecase.NewRetrieveContextUsecase(encoder, passages, reranker, retrievalConfig(), discardLogger())

	_, err := uc.Execute(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode query")
	passages.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieveContext_RerankerFailure(t *testing.T) {
	encoder := new(MockVectorEncoder)
	passages := new(MockPassageRepository)
	reranker := new(MockReranker)

	queryVec := []float32{0.1}
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{queryVec}, nil)
	passages.On("Search", mock.Anything, queryVec, 5).Return([]domain.PassageHit{
		{ID: uuid.New(), Text: "P1", Score: 0.9},
	}, nil)
	reranker.On("Rerank", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("reranker down"))

	uc := usecase.NewRetrieveContextUsecase(encoder, passages, reranker, retrievalConfig(), discardLogger())

	_, err := uc.Execute(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to rerank")
}
