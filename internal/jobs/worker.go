package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// JobProcessor defines the interface for processing jobs
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker represents a background job worker
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	logger       zerolog.Logger
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(processor JobProcessor, pollInterval time.Duration, logger zerolog.Logger) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		logger:       logger.With().Str("component", "worker").Logger(),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped: context cancelled")
			return
		case <-w.stopChan:
			w.logger.Info().Msg("worker stopped: stop signal received")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				w.logger.Error().Err(err).Msg("error processing jobs")
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	w.logger.Info().Msg("worker shutdown complete")
}
