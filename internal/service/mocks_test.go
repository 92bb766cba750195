package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/docindex/internal/domain"
)

// MockDocumentRepo mocks the document repository
type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepo) Upsert(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepo) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDocumentRepo) MarkIndexed(ctx context.Context, id string, hashes domain.SectionHashes, contentHash string, indexedAt time.Time) error {
	args := m.Called(ctx, id, hashes, contentHash, indexedAt)
	return args.Error(0)
}

func (m *MockDocumentRepo) ResetIndexState(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	args := m.Called(ctx, id, deletedAt)
	return args.Error(0)
}

// MockChunkRepo mocks the chunk repository
type MockChunkRepo struct {
	mock.Mock
}

func (m *MockChunkRepo) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	args := m.Called(ctx, documentID, chunks)
	return args.Error(0)
}

func (m *MockChunkRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

// MockTitleRepo mocks the title embedding repository
type MockTitleRepo struct {
	mock.Mock
}

func (m *MockTitleRepo) Get(ctx context.Context, documentID string) (*domain.TitleEmbedding, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TitleEmbedding), args.Error(1)
}

func (m *MockTitleRepo) Upsert(ctx context.Context, te *domain.TitleEmbedding) error {
	args := m.Called(ctx, te)
	return args.Error(0)
}

func (m *MockTitleRepo) Delete(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

// MockJobRepo mocks the indexing job repository
type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Enqueue(ctx context.Context, job *domain.IndexingJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockStateStore mocks the content state store
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Load(ctx context.Context, documentID string) ([]byte, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStateStore) Save(ctx context.Context, documentID string, state []byte) error {
	args := m.Called(ctx, documentID, state)
	return args.Error(0)
}

// MockEmbeddingClient mocks the embedding client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockSearchRepo mocks the vector search repository
type MockSearchRepo struct {
	mock.Mock
}

func (m *MockSearchRepo) SearchChunks(ctx context.Context, q VectorQuery) ([]ChunkMatch, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ChunkMatch), args.Error(1)
}

func (m *MockSearchRepo) SearchTitles(ctx context.Context, q VectorQuery) ([]DocumentMatch, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DocumentMatch), args.Error(1)
}

func (m *MockSearchRepo) ContentCentroid(ctx context.Context, documentID string) ([]float32, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type fixedUUIDGen struct {
	id string
}

func (g fixedUUIDGen) NewString() string {
	return g.id
}

func fixedTime() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}
