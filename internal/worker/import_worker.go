// Package worker consumes queued import jobs and drives their execution.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/imports"
	"github.com/bulk-importer/internal/logging"
)

// TaskSource hands out queued tasks. Dequeue blocks for up to timeout and
// returns an empty task name when nothing was queued.
type TaskSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (string, uuid.UUID, error)
}

// JobRunner executes one import job to completion.
type JobRunner interface {
	Run(ctx context.Context, jobID uuid.UUID) error
}

// ImportWorker pulls import tasks off the queue and runs them.
type ImportWorker struct {
	queue       TaskSource
	runner      JobRunner
	logger      *logging.Logger
	pollTimeout time.Duration

	running bool
	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}

	jobsProcessed int
	jobsFailed    int
}

// ImportWorkerConfig holds configuration for an import worker
type ImportWorkerConfig struct {
	Queue  TaskSource
	Runner JobRunner
	Logger *logging.Logger
	// PollTimeout bounds each blocking dequeue (default: 5 seconds).
	PollTimeout time.Duration
}

// NewImportWorker creates a new import worker
func NewImportWorker(cfg *ImportWorkerConfig) (*ImportWorker, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("task queue cannot be nil")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("job runner cannot be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = 5 * time.Second
	}

	return &ImportWorker{
		queue:       cfg.Queue,
		runner:      cfg.Runner,
		logger:      logger,
		pollTimeout: pollTimeout,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins consuming tasks in a background goroutine.
func (w *ImportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("import worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	w.logger.WithField("poll_timeout", w.pollTimeout.String()).Info("Starting import worker")

	go w.consumeLoop(ctx)

	return nil
}

// Stop gracefully stops the worker, waiting for the in-flight job to finish.
func (w *ImportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("import worker is not running")
	}
	w.mu.Unlock()

	w.logger.Info("Stopping import worker")
	close(w.stopCh)

	select {
	case <-w.doneCh:
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for import worker to stop: %w", ctx.Err())
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

func (w *ImportWorker) consumeLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		task, jobID, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.WithError(err).Error("Failed to dequeue task")
			// Back off so a broken queue does not spin the loop
			select {
			case <-time.After(time.Second):
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
			continue
		}
		if task == "" {
			continue
		}
		if task != imports.TaskProcessImport {
			w.logger.WithField("task", task).Warn("Skipping unknown task")
			continue
		}

		w.handleTask(ctx, jobID)
	}
}

func (w *ImportWorker) handleTask(ctx context.Context, jobID uuid.UUID) {
	logger := w.logger.WithField("job_id", jobID.String())
	logger.Info("Processing import job")

	start := time.Now()
	err := w.runner.Run(logging.WithLogger(ctx, logger), jobID)

	w.mu.Lock()
	w.jobsProcessed++
	if err != nil {
		w.jobsFailed++
	}
	w.mu.Unlock()

	if err != nil {
		logger.WithError(err).Error("Import job failed")
		return
	}
	logger.WithField("duration", time.Since(start).String()).Info("Import job finished")
}

// Status reports worker counters.
type Status struct {
	Running       bool `json:"running"`
	JobsProcessed int  `json:"jobs_processed"`
	JobsFailed    int  `json:"jobs_failed"`
}

// GetStatus returns a snapshot of the worker state.
func (w *ImportWorker) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:       w.running,
		JobsProcessed: w.jobsProcessed,
		JobsFailed:    w.jobsFailed,
	}
}
