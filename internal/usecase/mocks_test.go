package usecase_test

import (
	"context"

	"docuchat/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockGenerator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Chat(ctx context.Context, system string, history []domain.Turn) (string, error) {
	args := m.Called(ctx, system, history)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Version() string {
	return "mock-generator"
}

// MockVectorEncoder
type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockVectorEncoder) Version() string {
	return "mock-encoder"
}

// MockPassageRepository
type MockPassageRepository struct {
	mock.Mock
}

func (m *MockPassageRepository) BulkInsert(ctx context.Context, passages []domain.Passage) error {
	args := m.Called(ctx, passages)
	return args.Error(0)
}

func (m *MockPassageRepository) Search(ctx context.Context, queryVector []float32, k int) ([]domain.PassageHit, error) {
	args := m.Called(ctx, queryVector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PassageHit), args.Error(1)
}

func (m *MockPassageRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockReranker
type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, candidates []string, topN int) ([]domain.RankedIndex, error) {
	args := m.Called(ctx, query, candidates, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RankedIndex), args.Error(1)
}

func (m *MockReranker) ModelName() string {
	return "mock-reranker"
}

// MockDocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) GetBySourceHash(ctx context.Context, hash string) (*domain.Document, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// fakeTxManager runs the function without a real transaction.
type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
