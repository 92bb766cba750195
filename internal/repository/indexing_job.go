package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const indexingJobColumns = `id, document_id, status, retries, error, created_at, claimed_at, processed_at`

// DefaultJobLease is how long a processing job may run before the queue
// treats its worker as gone.
const DefaultJobLease = 15 * time.Minute

const leaseExpiredError = "lease expired"

// IndexingJobRepository is the Postgres-backed queue of indexing runs.
type IndexingJobRepository struct {
	db    dbtx
	lease time.Duration
}

func NewIndexingJobRepository(pool *pgxpool.Pool) *IndexingJobRepository {
	return &IndexingJobRepository{db: pool, lease: DefaultJobLease}
}

func NewIndexingJobRepositoryWithTx(tx pgx.Tx) *IndexingJobRepository {
	return &IndexingJobRepository{db: tx, lease: DefaultJobLease}
}

// WithLease returns a copy of the repository using lease for abandoned-job
// detection. Non-positive values keep the current lease.
func (r *IndexingJobRepository) WithLease(lease time.Duration) *IndexingJobRepository {
	out := *r
	if lease > 0 {
		out.lease = lease
	}
	return &out
}

// Enqueue adds a pending job. When the document already has a pending job
// the call is a no-op, so repeated edits collapse into one run.
func (r *IndexingJobRepository) Enqueue(ctx context.Context, job *domain.IndexingJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO indexing_jobs (id, document_id, status, retries, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (document_id) WHERE status = 'pending' DO NOTHING`,
		job.ID, job.DocumentID, domain.IndexingJobStatusPending, job.Retries, job.CreatedAt,
	)
	return err
}

func (r *IndexingJobRepository) GetByID(ctx context.Context, id string) (*domain.IndexingJob, error) {
	row := r.db.QueryRow(ctx, `SELECT `+indexingJobColumns+` FROM indexing_jobs WHERE id = $1`, id)
	job, err := scanIndexingJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIndexingJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending moves up to limit pending jobs to processing and returns
// them. Processing jobs whose lease ran out are released first. A job is
// skipped while another job of the same document is processing, and at most
// one job per document is claimed per call.
func (r *IndexingJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IndexingJob, error) {
	if limit <= 0 {
		limit = 100
	}

	if err := r.releaseExpired(ctx); err != nil {
		return nil, fmt.Errorf("failed to release expired jobs: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT j.id
			 FROM indexing_jobs j
			 WHERE j.status = $1
			   AND NOT EXISTS (
			       SELECT 1 FROM indexing_jobs p
			       WHERE p.document_id = j.document_id AND p.status = $3
			   )
			 ORDER BY j.created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE indexing_jobs
		 SET status = $3,
		     error = NULL,
		     claimed_at = NOW(),
		     processed_at = NULL
		 FROM cte
		 WHERE indexing_jobs.id = cte.id
		 RETURNING indexing_jobs.id, indexing_jobs.document_id, indexing_jobs.status, indexing_jobs.retries,
		           indexing_jobs.error, indexing_jobs.created_at, indexing_jobs.claimed_at, indexing_jobs.processed_at`,
		domain.IndexingJobStatusPending, limit, domain.IndexingJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.IndexingJob
	for rows.Next() {
		job, err := scanIndexingJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// releaseExpired handles processing jobs claimed longer than the lease ago.
// Such a job goes back to pending with one more retry, or is marked failed
// when its attempts are used up or the document already has a newer pending
// job. A document whose job failed this way, with nothing pending, is
// marked failed.
func (r *IndexingJobRepository) releaseExpired(ctx context.Context) error {
	_, err := r.db.Exec(ctx,
		`WITH expired AS (
			 UPDATE indexing_jobs j
			 SET status = CASE
			         WHEN j.retries + 1 >= $3 OR EXISTS (
			             SELECT 1 FROM indexing_jobs p
			             WHERE p.document_id = j.document_id AND p.status = $1
			         ) THEN $4
			         ELSE $1 END,
			     retries = j.retries + 1,
			     error = $5,
			     claimed_at = NULL,
			     processed_at = CASE
			         WHEN j.retries + 1 >= $3 OR EXISTS (
			             SELECT 1 FROM indexing_jobs p
			             WHERE p.document_id = j.document_id AND p.status = $1
			         ) THEN NOW()
			         ELSE NULL END
			 WHERE j.status = $2
			   AND j.claimed_at < NOW() - make_interval(secs => $6)
			 RETURNING j.document_id, j.status
		 )
		 UPDATE documents d
		 SET status = $7, updated_at = NOW()
		 FROM expired e
		 WHERE d.id = e.document_id
		   AND e.status = $4
		   AND NOT EXISTS (
		       SELECT 1 FROM indexing_jobs p
		       WHERE p.document_id = e.document_id AND p.status = $1
		   )`,
		domain.IndexingJobStatusPending, domain.IndexingJobStatusProcessing,
		domain.IndexingJobMaxAttempts, domain.IndexingJobStatusFailed,
		leaseExpiredError, r.lease.Seconds(), domain.DocumentStatusFailed,
	)
	return err
}

func (r *IndexingJobRepository) UpdateStatus(ctx context.Context, id string, status domain.IndexingJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.IndexingJobStatusCompleted || status == domain.IndexingJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE indexing_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIndexingJobNotFound
	}
	return nil
}

// Requeue puts a processing job back to pending with its retry count
// incremented. When the document already got a newer pending job the
// retried job is folded into it and marked failed.
func (r *IndexingJobRepository) Requeue(ctx context.Context, id string, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE indexing_jobs j
		 SET status = CASE WHEN EXISTS (
		         SELECT 1 FROM indexing_jobs p
		         WHERE p.document_id = j.document_id AND p.status = $1 AND p.id <> j.id
		     ) THEN $2 ELSE $1 END,
		     retries = retries + 1,
		     claimed_at = NULL,
		     error = $3
		 WHERE j.id = $4`,
		domain.IndexingJobStatusPending, domain.IndexingJobStatusFailed, nullableString(errMsg), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIndexingJobNotFound
	}
	return nil
}

func scanIndexingJob(row pgx.Row) (*domain.IndexingJob, error) {
	var job domain.IndexingJob
	var errMsg pgtype.Text
	if err := row.Scan(&job.ID, &job.DocumentID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ClaimedAt, &job.ProcessedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}
