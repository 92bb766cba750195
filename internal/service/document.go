package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/docindex/internal/content"
	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/telemetry"
)

// PutDocumentInput represents the input for storing a document
type PutDocumentInput struct {
	ID        string
	OrgID     string
	Title     string
	Published bool
	State     []byte
}

// DocumentStatusOutput summarizes the index state of a document
type DocumentStatusOutput struct {
	Document   *domain.Document
	ChunkCount int
}

// DocumentService stores documents and queues them for indexing
type DocumentService struct {
	docs     DocumentRepositoryInterface
	chunks   ChunkRepositoryInterface
	states   ContentStateStore
	txRunner TxRunner
	uuidGen  UUIDGenerator
	now      func() time.Time
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(
	docs DocumentRepositoryInterface,
	chunks ChunkRepositoryInterface,
	states ContentStateStore,
	txRunner TxRunner,
) *DocumentService {
	return NewDocumentServiceWithUUIDGen(docs, chunks, states, txRunner, &DefaultUUIDGenerator{})
}

// NewDocumentServiceWithUUIDGen creates a new DocumentService with custom UUID generator (for testing)
func NewDocumentServiceWithUUIDGen(
	docs DocumentRepositoryInterface,
	chunks ChunkRepositoryInterface,
	states ContentStateStore,
	txRunner TxRunner,
	uuidGen UUIDGenerator,
) *DocumentService {
	return &DocumentService{
		docs:     docs,
		chunks:   chunks,
		states:   states,
		txRunner: txRunner,
		uuidGen:  uuidGen,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Put stores the content state of a document, creates or updates its row
// and queues an indexing job. The state is saved before the job becomes
// visible so a worker never indexes a stale state.
func (s *DocumentService) Put(ctx context.Context, input PutDocumentInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Put", telemetry.SpanAttributes{
		OrgID:      input.OrgID,
		DocumentID: input.ID,
		Operation:  "put",
	})
	defer span.End()

	if strings.TrimSpace(input.ID) == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "document id is required", domain.ErrMissingRequiredField)
	}
	if _, err := content.Decode(input.State); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), domain.ErrInvalidContentState)
	}

	doc := domain.NewDocument(input.ID, input.OrgID, input.Title, input.Published, s.now())
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), domain.ErrMissingRequiredField)
	}

	// The upsert rejects foreign ids too; checking first keeps another
	// organization's state from being overwritten.
	existing, err := s.docs.GetByID(ctx, doc.ID)
	switch {
	case err == nil && existing.OrgID != doc.OrgID:
		return nil, domain.ErrDocumentAlreadyExists
	case err != nil && !errors.Is(err, domain.ErrDocumentNotFound):
		span.SetError(err)
		return nil, err
	}

	if err := s.states.Save(ctx, doc.ID, input.State); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to save content state: %w", err)
	}

	var stored *domain.Document
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		var err error
		stored, err = repos.Documents().Upsert(ctx, doc)
		if err != nil {
			return err
		}
		return repos.IndexingJobs().Enqueue(ctx, domain.NewIndexingJob(s.uuidGen.NewString(), doc.ID, s.now()))
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return stored, nil
}

// Get returns a document and its stored chunk count.
func (s *DocumentService) Get(ctx context.Context, orgID, documentID string) (*DocumentStatusOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Get", telemetry.SpanAttributes{
		OrgID:      orgID,
		DocumentID: documentID,
		Operation:  "get",
	})
	defer span.End()

	doc, err := s.owned(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	count, err := s.chunks.CountByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentStatusOutput{Document: doc, ChunkCount: count}, nil
}

// Reindex clears the recorded hashes of a document so the next run
// rebuilds it, and queues that run.
func (s *DocumentService) Reindex(ctx context.Context, orgID, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Reindex", telemetry.SpanAttributes{
		OrgID:      orgID,
		DocumentID: documentID,
		Operation:  "reindex",
	})
	defer span.End()

	doc, err := s.owned(ctx, orgID, documentID)
	if err != nil {
		return err
	}
	if doc.IsDeleted() {
		return domain.ErrDocumentDeleted
	}

	return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().ResetIndexState(ctx, documentID); err != nil {
			return err
		}
		return repos.IndexingJobs().Enqueue(ctx, domain.NewIndexingJob(s.uuidGen.NewString(), documentID, s.now()))
	})
}

// Delete soft-deletes a document, hiding it from every search.
func (s *DocumentService) Delete(ctx context.Context, orgID, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		OrgID:      orgID,
		DocumentID: documentID,
		Operation:  "delete",
	})
	defer span.End()

	doc, err := s.owned(ctx, orgID, documentID)
	if err != nil {
		return err
	}
	if doc.IsDeleted() {
		return nil
	}
	return s.docs.SoftDelete(ctx, documentID, s.now())
}

func (s *DocumentService) owned(ctx context.Context, orgID, documentID string) (*domain.Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OrgID != orgID {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}
