package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloo-solutions/docindex/internal/chunking"
	"github.com/cloo-solutions/docindex/internal/content"
	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/sections"
	"github.com/cloo-solutions/docindex/internal/telemetry"
)

// ReasonContentUnchanged is reported when an index build was skipped
// because no section changed since the last successful build.
const ReasonContentUnchanged = "content_unchanged"

// IndexResult describes the outcome of one indexing run.
type IndexResult struct {
	Skipped     bool
	Reason      string
	ChunkCount  int
	FullReindex bool
}

// IndexingConfig controls how documents are chunked for indexing.
type IndexingConfig struct {
	Strategy chunking.Strategy
	Chunk    chunking.Config
}

// DefaultIndexingConfig returns paragraph chunking with default sizes.
func DefaultIndexingConfig() IndexingConfig {
	return IndexingConfig{
		Strategy: chunking.StrategyParagraph,
		Chunk:    chunking.DefaultConfig(),
	}
}

// IndexingService keeps the chunk and title indexes of documents current.
// Callers must ensure at most one run per document is in flight.
type IndexingService struct {
	docs     DocumentRepositoryInterface
	titles   TitleEmbeddingRepositoryInterface
	states   ContentStateStore
	txRunner TxRunner
	embedder EmbeddingClient
	cfg      IndexingConfig
	uuidGen  UUIDGenerator
	now      func() time.Time
	logger   zerolog.Logger
}

// NewIndexingService creates a new IndexingService instance
func NewIndexingService(
	docs DocumentRepositoryInterface,
	titles TitleEmbeddingRepositoryInterface,
	states ContentStateStore,
	txRunner TxRunner,
	embedder EmbeddingClient,
	cfg IndexingConfig,
	logger zerolog.Logger,
) *IndexingService {
	if !chunking.IsValidStrategy(cfg.Strategy) {
		cfg.Strategy = chunking.StrategyParagraph
	}
	return &IndexingService{
		docs:     docs,
		titles:   titles,
		states:   states,
		txRunner: txRunner,
		embedder: embedder,
		cfg:      cfg,
		uuidGen:  &DefaultUUIDGenerator{},
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("component", "indexing").Logger(),
	}
}

// IndexDocument loads the stored content state of a document, rebuilds its
// chunk index when needed and refreshes its title embedding.
func (s *IndexingService) IndexDocument(ctx context.Context, documentID string) (*IndexResult, error) {
	state, err := s.states.Load(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load content state: %w", err)
	}

	result, err := s.ProcessDocumentEmbedding(ctx, documentID, state)
	if err != nil {
		return nil, err
	}

	if _, err := s.SyncTitleEmbedding(ctx, documentID); err != nil {
		return result, fmt.Errorf("failed to sync title embedding: %w", err)
	}
	return result, nil
}

// ProcessDocumentEmbedding rebuilds the chunk index of a document from its
// content state. It skips when no section changed since the last build.
// Otherwise it re-chunks and re-embeds the whole document and replaces all
// stored chunks in one transaction. On failure the document is marked
// failed and the error is returned; nothing is retried here.
func (s *IndexingService) ProcessDocumentEmbedding(ctx context.Context, documentID string, state []byte) (*IndexResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexingService.ProcessDocumentEmbedding", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "index",
	})
	defer span.End()

	logger := s.logger.With().Str("document_id", documentID).Logger()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted() {
		return nil, domain.ErrDocumentDeleted
	}

	tree, err := content.Decode(state)
	if err != nil {
		err = domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), domain.ErrInvalidContentState)
		s.markFailed(ctx, logger, documentID, err)
		span.SetError(err)
		return nil, err
	}

	plain := content.PlainText(tree)
	contentHash := sections.HashContent(plain)

	var newHashes domain.SectionHashes
	fullReindex := true
	secs := sections.Extract(tree)
	if len(secs) == 0 {
		if doc.LastIndexedContentHash == contentHash {
			logger.Debug().Msg("content unchanged, skipping")
			return &IndexResult{Skipped: true, Reason: ReasonContentUnchanged}, nil
		}
		newHashes = domain.SectionHashes{}
	} else {
		newHashes = sections.HashMap(secs)
		changes := sections.FindChanged(doc.SectionHashes, secs)
		if !changes.HasChanges() {
			logger.Debug().Int("sections", len(secs)).Msg("no section changed, skipping")
			return &IndexResult{Skipped: true, Reason: ReasonContentUnchanged}, nil
		}
		fullReindex = changes.FullReindex
		logger.Debug().
			Int("changed", len(changes.Changed)).
			Strs("deleted", changes.DeletedKeys).
			Bool("full_reindex", changes.FullReindex).
			Msg("sections changed")
	}

	if err := s.docs.UpdateStatus(ctx, documentID, domain.DocumentStatusIndexing); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to mark document indexing: %w", err)
	}

	var chunkCount int
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		chunks := s.chunk(ctx, logger, tree, plain)

		records, err := s.embedChunks(ctx, doc, chunks)
		if err != nil {
			return err
		}

		if err := repos.Chunks().ReplaceChunks(ctx, documentID, records); err != nil {
			return fmt.Errorf("failed to replace document chunks: %w", err)
		}
		if err := repos.Documents().MarkIndexed(ctx, documentID, newHashes, contentHash, s.now()); err != nil {
			return fmt.Errorf("failed to mark document indexed: %w", err)
		}

		chunkCount = len(records)
		return nil
	})
	if err != nil {
		s.markFailed(ctx, logger, documentID, err)
		span.SetError(err)
		return nil, err
	}

	logger.Info().Int("chunks", chunkCount).Bool("full_reindex", fullReindex).Msg("document indexed")
	return &IndexResult{ChunkCount: chunkCount, FullReindex: fullReindex}, nil
}

// chunk runs the configured structural chunker and falls back to plain
// chunking when it rejects the tree or finds nothing in non-blank text.
func (s *IndexingService) chunk(ctx context.Context, logger zerolog.Logger, tree *content.Node, plain string) []chunking.Chunk {
	ctx, span := telemetry.StartSpan(ctx, "IndexingService.chunk", telemetry.SpanAttributes{Operation: string(s.cfg.Strategy)})
	defer span.End()

	var (
		chunks []chunking.Chunk
		err    error
	)
	switch s.cfg.Strategy {
	case chunking.StrategyWindowed:
		chunks, err = chunking.HeadingAware(tree, s.cfg.Chunk)
	default:
		chunks, err = chunking.Paragraphs(tree, s.cfg.Chunk)
	}

	if err != nil {
		logger.Warn().Err(err).Msg("structural chunking failed, using plain chunks")
		telemetry.AddBreadcrumb(ctx, "chunking", "structural chunking failed: "+err.Error())
		return chunking.Simple(plain, s.cfg.Chunk)
	}
	if len(chunks) == 0 && strings.TrimSpace(plain) != "" {
		telemetry.AddBreadcrumb(ctx, "chunking", "structural chunking found no chunks")
		return chunking.Simple(plain, s.cfg.Chunk)
	}
	return chunks
}

func (s *IndexingService) embedChunks(ctx context.Context, doc *domain.Document, chunks []chunking.Chunk) ([]domain.DocumentChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate chunk embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.NewDomainErrorWithCause(
			domain.ErrCodeInternalError,
			fmt.Sprintf("got %d embeddings for %d chunks", len(vectors), len(chunks)),
			domain.ErrEmbeddingCountMismatch,
		)
	}

	createdAt := s.now()
	records := make([]domain.DocumentChunk, len(chunks))
	for i, c := range chunks {
		records[i] = domain.DocumentChunk{
			ID:               s.uuidGen.NewString(),
			DocumentID:       doc.ID,
			OrgID:            doc.OrgID,
			ChunkIndex:       c.Index,
			Content:          c.Content,
			Heading:          c.Heading,
			HeadingLevel:     c.Level,
			HeaderBreadcrumb: c.Breadcrumb(),
			SectionKey:       c.SectionKey,
			Embedding:        vectors[i],
			CreatedAt:        createdAt,
		}
	}
	return records, nil
}

// markFailed records the failed status outside of the rolled back
// transaction. It must survive cancellation of the caller's context.
func (s *IndexingService) markFailed(ctx context.Context, logger zerolog.Logger, documentID string, cause error) {
	logger.Error().Err(cause).Msg("document indexing failed")
	telemetry.CaptureError(ctx, cause)

	if err := s.docs.UpdateStatus(context.WithoutCancel(ctx), documentID, domain.DocumentStatusFailed); err != nil {
		logger.Error().Err(err).Msg("failed to mark document failed")
	}
}

// SyncTitleEmbedding replaces the title embedding of a document when its
// normalized title differs from the stored one. An empty title removes the
// stored embedding. It reports whether anything was written.
func (s *IndexingService) SyncTitleEmbedding(ctx context.Context, documentID string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexingService.SyncTitleEmbedding", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "title",
	})
	defer span.End()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return false, err
	}

	existing, err := s.titles.Get(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrTitleEmbeddingNotFound) {
		return false, err
	}

	title := normalizeTitle(doc.Title)
	if title == "" {
		if existing == nil {
			return false, nil
		}
		if err := s.titles.Delete(ctx, documentID); err != nil {
			return false, fmt.Errorf("failed to delete title embedding: %w", err)
		}
		return true, nil
	}

	if existing != nil && normalizeTitle(existing.Title) == title {
		return false, nil
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, strings.TrimSpace(doc.Title))
	if err != nil {
		span.SetError(err)
		return false, fmt.Errorf("failed to generate title embedding: %w", err)
	}

	err = s.titles.Upsert(ctx, &domain.TitleEmbedding{
		DocumentID: doc.ID,
		OrgID:      doc.OrgID,
		Title:      doc.Title,
		Embedding:  embedding,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to store title embedding: %w", err)
	}
	return true, nil
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
