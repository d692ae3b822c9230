// Package imports orchestrates the import job lifecycle: upload, preview,
// mapping, validation, queued execution, and error reporting. The service
// handles the synchronous API-facing operations; the Runner executes queued
// jobs on the worker side.
package imports

import (
	"context"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/models"
)

// TaskProcessImport is the queue task name consumed by the import worker.
const TaskProcessImport = "process_import_job"

// Business metric event names emitted through the Recorder.
const (
	EventImportStarted       = "import_started"
	EventImportCompleted     = "import_completed"
	EventImportFailed        = "import_failed"
	EventImportValidationErr = "import_validation_error"
)

// JobStore persists import jobs. Tenant-scoped reads return
// types.ErrJobNotFound when the id does not resolve within the tenant.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.ImportJob) error
	GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error)
	// GetJobByID resolves a job without a tenant filter; used by the worker,
	// which receives bare job ids off the queue.
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.ImportJob, error)
	UpdateJob(ctx context.Context, job *models.ImportJob) error
	// UpdateProgress flushes execution counters without rewriting the full row.
	UpdateProgress(ctx context.Context, jobID uuid.UUID, processed, imported, errored, skipped int) error
	ListJobs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.ImportJob, error)
}

// ErrorStore persists per-row error records produced during execution.
type ErrorStore interface {
	InsertErrors(ctx context.Context, records []models.ImportErrorRecord) error
	ListErrors(ctx context.Context, jobID uuid.UUID) ([]models.ImportErrorRecord, error)
}

// BlobStore reads and writes file content by key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Enqueuer hands a job off to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task string, jobID uuid.UUID) error
}

// Recorder sinks business metric events. A nil Recorder is valid; callers
// skip recording when none is configured.
type Recorder interface {
	Record(ctx context.Context, event string, job *models.ImportJob)
}

// OrgUnitResolver resolves the uploading user's default org unit, applied to
// rows that carry no org unit of their own.
type OrgUnitResolver interface {
	DefaultOrgUnit(ctx context.Context, tenantID, userID uuid.UUID) (*uuid.UUID, error)
}
