// Package progress turns import job counters into a bounded event feed.
// The watcher polls job state and emits an event whenever progress moves,
// terminating on completion, timeout, or context cancellation. The API layer
// forwards these events over SSE.
package progress

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
)

// EventType classifies one feed event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventTimeout  EventType = "timeout"
	EventError    EventType = "error"
)

// Event is one snapshot of job progress.
type Event struct {
	Type          EventType       `json:"type"`
	JobID         uuid.UUID       `json:"job_id"`
	Status        types.JobStatus `json:"status,omitempty"`
	TotalRows     int             `json:"total_rows"`
	ProcessedRows int             `json:"processed_rows"`
	ImportedCount int             `json:"imported_count"`
	ErrorCount    int             `json:"error_count"`
	SkippedCount  int             `json:"skipped_count"`
	Percent       float64         `json:"progress_percent"`
	Message       string          `json:"message,omitempty"`
}

// JobReader resolves the watched job, tenant-scoped.
type JobReader interface {
	GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error)
}

// Watcher polls job state on a fixed interval.
type Watcher struct {
	jobs         JobReader
	pollInterval time.Duration
	timeout      time.Duration
	logger       *logging.Logger
}

// NewWatcher creates a watcher. Non-positive intervals fall back to one
// second polling and a five minute timeout.
func NewWatcher(jobs JobReader, pollInterval, timeout time.Duration, logger *logging.Logger) *Watcher {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Watcher{jobs: jobs, pollInterval: pollInterval, timeout: timeout, logger: logger}
}

// Watch streams progress events for one job until it reaches a terminal
// status, the watch times out, or ctx is cancelled. The channel always
// closes; the final event is complete, timeout, or error.
func (w *Watcher) Watch(ctx context.Context, tenantID, jobID uuid.UUID) <-chan Event {
	events := make(chan Event)
	go w.run(ctx, tenantID, jobID, events)
	return events
}

func (w *Watcher) run(ctx context.Context, tenantID, jobID uuid.UUID, events chan<- Event) {
	defer close(events)

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var lastStatus types.JobStatus
	lastProcessed := -1

	emit := func(e Event) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		job, err := w.jobs.GetJob(ctx, tenantID, jobID)
		if err != nil {
			emit(Event{Type: EventError, JobID: jobID, Message: err.Error()})
			return
		}

		if job.Status != lastStatus || job.ProcessedRows != lastProcessed {
			lastStatus = job.Status
			lastProcessed = job.ProcessedRows
			if !emit(snapshot(EventProgress, job)) {
				return
			}
		}
		if job.Status.Terminal() {
			emit(snapshot(EventComplete, job))
			return
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			w.logger.WithField("job_id", jobID).Warn("progress watch timed out")
			emit(Event{Type: EventTimeout, JobID: jobID, Message: "watch timed out"})
			return
		case <-ctx.Done():
			return
		}
	}
}

func snapshot(kind EventType, job *models.ImportJob) Event {
	return Event{
		Type:          kind,
		JobID:         job.ID,
		Status:        job.Status,
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		ImportedCount: job.ImportedCount,
		ErrorCount:    job.ErrorCount,
		SkippedCount:  job.SkippedCount,
		Percent:       percentDone(job.ProcessedRows, job.TotalRows),
	}
}

// percentDone rounds to two decimal places; an unknown total reads as zero.
func percentDone(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(processed)/float64(total)*10000) / 100
}
