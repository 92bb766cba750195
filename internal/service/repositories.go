package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/google/uuid"
)

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Upsert(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
	MarkIndexed(ctx context.Context, id string, hashes domain.SectionHashes, contentHash string, indexedAt time.Time) error
	ResetIndexState(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
}

// ChunkRepositoryInterface defines the repository interface for indexed chunks
type ChunkRepositoryInterface interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error
	CountByDocument(ctx context.Context, documentID string) (int, error)
}

// TitleEmbeddingRepositoryInterface defines the repository interface for title vectors
type TitleEmbeddingRepositoryInterface interface {
	Get(ctx context.Context, documentID string) (*domain.TitleEmbedding, error)
	Upsert(ctx context.Context, te *domain.TitleEmbedding) error
	Delete(ctx context.Context, documentID string) error
}

// IndexingJobRepositoryInterface defines the repository interface for queuing indexing jobs
type IndexingJobRepositoryInterface interface {
	Enqueue(ctx context.Context, job *domain.IndexingJob) error
}

// ContentStateStore loads and saves the raw content state of documents.
// Load returns nil state without error when nothing was stored yet.
type ContentStateStore interface {
	Load(ctx context.Context, documentID string) ([]byte, error)
	Save(ctx context.Context, documentID string, state []byte) error
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
