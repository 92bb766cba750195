package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/service"
	"github.com/cloo-solutions/docindex/internal/telemetry"
)

const (
	// MaxRetries is the maximum number of attempts for a job
	MaxRetries = domain.IndexingJobMaxAttempts
	// DefaultConcurrency is the number of documents indexed at once
	DefaultConcurrency = 4
	// DefaultBatchSize is the number of jobs claimed per poll
	DefaultBatchSize = 20
)

// IndexingJobRepository defines the interface for indexing job persistence
type IndexingJobRepository interface {
	// ClaimPending moves pending jobs to processing and returns them
	ClaimPending(ctx context.Context, limit int) ([]*domain.IndexingJob, error)

	// UpdateStatus sets the status of a job
	UpdateStatus(ctx context.Context, jobID string, status domain.IndexingJobStatus, errMsg string) error

	// Requeue returns a job to pending and counts the attempt
	Requeue(ctx context.Context, jobID string, errMsg string) error
}

// DocumentIndexer indexes one document from its stored content state
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, documentID string) (*service.IndexResult, error)
}

// IndexingWorker processes indexing jobs
type IndexingWorker struct {
	repo        IndexingJobRepository
	indexer     DocumentIndexer
	concurrency int
	batchSize   int
	logger      zerolog.Logger
}

// NewIndexingWorker creates a new IndexingWorker instance
func NewIndexingWorker(repo IndexingJobRepository, indexer DocumentIndexer, concurrency int, logger zerolog.Logger) *IndexingWorker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &IndexingWorker{
		repo:        repo,
		indexer:     indexer,
		concurrency: concurrency,
		batchSize:   DefaultBatchSize,
		logger:      logger.With().Str("component", "indexing_worker").Logger(),
	}
}

// ProcessJobs implements the JobProcessor interface.
func (w *IndexingWorker) ProcessJobs(ctx context.Context) error {
	_, err := w.ProcessBatch(ctx)
	return err
}

// ProcessBatch claims one batch of pending jobs and runs it, returning the
// number of jobs claimed. Claimed jobs always belong to distinct documents,
// so they run concurrently.
func (w *IndexingWorker) ProcessBatch(ctx context.Context) (int, error) {
	jobs, err := w.repo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return 0, nil
	}

	w.logger.Debug().Int("jobs", len(jobs)).Msg("processing pending indexing jobs")

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error().Err(err).Str("job_id", job.ID).Msg("error processing job")
			}
			return nil
		})
	}
	return len(jobs), g.Wait()
}

func (w *IndexingWorker) processJob(ctx context.Context, job *domain.IndexingJob) error {
	logger := w.logger.With().Str("job_id", job.ID).Str("document_id", job.DocumentID).Logger()

	ctx, span := telemetry.StartTransaction(ctx, "indexing.job", "queue.process", telemetry.SpanAttributes{
		DocumentID: job.DocumentID,
		JobID:      job.ID,
	})
	defer span.End()

	result, err := w.indexer.IndexDocument(ctx, job.DocumentID)
	if err != nil {
		span.SetStatus(sentry.SpanStatusInternalError)
		return w.handleJobFailure(ctx, logger, job, err)
	}
	span.SetStatus(sentry.SpanStatusOK)

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexingJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	logger.Info().
		Bool("skipped", result.Skipped).
		Int("chunks", result.ChunkCount).
		Msg("job completed")
	return nil
}

// handleJobFailure requeues a failed job until MaxRetries attempts were
// made. Errors that another attempt cannot fix fail the job at once.
func (w *IndexingWorker) handleJobFailure(ctx context.Context, logger zerolog.Logger, job *domain.IndexingJob, jobErr error) error {
	logger.Warn().Err(jobErr).Int32("retries", job.Retries).Msg("job failed")

	if isPermanent(jobErr) {
		telemetry.CaptureMessage(ctx, fmt.Sprintf("indexing job %s failed permanently: %v", job.ID, jobErr))
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexingJobStatusFailed, jobErr.Error()); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	if job.Retries+1 >= MaxRetries {
		logger.Error().Int("max_retries", MaxRetries).Msg("job exceeded max retries, marking as failed")
		telemetry.CaptureError(ctx, jobErr)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexingJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.Requeue(ctx, job.ID, errMsg); err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}
	return nil
}

func isPermanent(err error) bool {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case domain.ErrCodeValidation, domain.ErrCodeNotFound, domain.ErrCodeInvalidOperation:
		return true
	}
	return false
}
