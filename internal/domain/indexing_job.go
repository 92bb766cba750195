package domain

import (
	"fmt"
	"time"
)

// IndexingJobStatus represents the status of an indexing job
type IndexingJobStatus string

const (
	IndexingJobStatusPending    IndexingJobStatus = "pending"
	IndexingJobStatusProcessing IndexingJobStatus = "processing"
	IndexingJobStatusCompleted  IndexingJobStatus = "completed"
	IndexingJobStatusFailed     IndexingJobStatus = "failed"
)

// IndexingJobMaxAttempts bounds how many times one job is run before it is
// marked failed.
const IndexingJobMaxAttempts = 3

// IndexingJob represents a queued request to (re)index one document
type IndexingJob struct {
	ID          string
	DocumentID  string
	Status      IndexingJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
}

// NewIndexingJob creates a new pending IndexingJob
func NewIndexingJob(id, documentID string, createdAt time.Time) *IndexingJob {
	return &IndexingJob{
		ID:         id,
		DocumentID: documentID,
		Status:     IndexingJobStatusPending,
		CreatedAt:  createdAt,
	}
}

// ValidateIndexingJob validates an IndexingJob instance
func ValidateIndexingJob(j *IndexingJob) error {
	if j == nil {
		return fmt.Errorf("indexing job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("indexing job ID is required")
	}

	if j.DocumentID == "" {
		return fmt.Errorf("indexing job DocumentID is required")
	}

	if !isValidIndexingJobStatus(j.Status) {
		return fmt.Errorf("indexing job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("indexing job Retries cannot be negative")
	}

	return nil
}

func isValidIndexingJobStatus(s IndexingJobStatus) bool {
	switch s {
	case IndexingJobStatusPending, IndexingJobStatusProcessing,
		IndexingJobStatusCompleted, IndexingJobStatusFailed:
		return true
	}
	return false
}
