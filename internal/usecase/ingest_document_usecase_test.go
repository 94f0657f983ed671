package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"docuchat/internal/domain"
	"docuchat/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ingestBody() string {
	para := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 4)
	return para + "\n\n" + para + "\n\n" + para
}

func TestIngest_StoresDocumentAndPassages(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	passageRepo := new(MockPassageRepository)
	encoder := new(MockVectorEncoder)

	docRepo.On("GetBySourceHash", mock.Anything, mock.Anything).Return(nil, nil)
	docRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Name == "handbook.txt" && doc.SourceHash != ""
	})).Return(nil)

	// The three paragraphs chunk 1:1; with batch size 2 that is one batch of
	// two texts and one of a single text.
	vec := []float32{0.1, 0.2}
	encoder.On("Encode", mock.Anything, mock.MatchedBy(func(texts []string) bool {
		return len(texts) == 2
	})).Return([][]float32{vec, vec}, nil)
	encoder.On("Encode", mock.Anything, mock.MatchedBy(func(texts []string) bool {
		return len(texts) == 1
	})).Return([][]float32{vec}, nil)

	var inserted []domain.Passage
	passageRepo.On("BulkInsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).([]domain.Passage)
		}).Return(nil)

	uc := usecase.NewIngestDocumentUsecase(
		docRepo, passageRepo, &fakeTxManager{},
		domain.NewSourceHashPolicy(), domain.NewChunker(), encoder,
		nil, 2, discardLogger(),
	)

	result, err := uc.Ingest(context.Background(), "handbook.txt", ingestBody())
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, result.PassageCount, len(inserted))
	require.NotEmpty(t, inserted)
	for i, p := range inserted {
		assert.Equal(t, result.DocumentID, p.DocumentID)
		assert.Equal(t, i, p.Ordinal)
		assert.NotEmpty(t, p.Content)
	}
}

func TestIngest_SkipsAlreadyIngestedContent(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	passageRepo := new(MockPassageRepository)
	encoder := new(MockVectorEncoder)

	existing := &domain.Document{ID: uuid.New(), Name: "handbook.txt", CreatedAt: time.Now()}
	docRepo.On("GetBySourceHash", mock.Anything, mock.Anything).Return(existing, nil)

	uc := usecase.NewIngestDocumentUsecase(
		docRepo, passageRepo, &fakeTxManager{},
		domain.NewSourceHashPolicy(), domain.NewChunker(), encoder,
		nil, 2, discardLogger(),
	)

	result, err := uc.Ingest(context.Background(), "handbook.txt", ingestBody())
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Equal(t, existing.ID, result.DocumentID)
	encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
	passageRepo.AssertNotCalled(t, "BulkInsert", mock.Anything, mock.Anything)
}

func TestIngest_EmptyBodyRejected(t *testing.T) {
	uc := usecase.NewIngestDocumentUsecase(
		new(MockDocumentRepository), new(MockPassageRepository), &fakeTxManager{},
		domain.NewSourceHashPolicy(), domain.NewChunker(), new(MockVectorEncoder),
		nil, 2, discardLogger(),
	)

	_, err := uc.Ingest(context.Background(), "empty.txt", "   \n\n  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
