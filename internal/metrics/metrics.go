// Package metrics records import lifecycle events to ClickHouse for
// reporting. Recording is best effort and never blocks the pipeline.
package metrics

import (
	"context"
	"time"

	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/storage"
)

// ClickHouseRecorder writes one row per lifecycle event. It implements
// imports.Recorder.
type ClickHouseRecorder struct {
	db *storage.ClickHouseDB
}

// NewClickHouseRecorder creates a recorder on an existing connection.
func NewClickHouseRecorder(db *storage.ClickHouseDB) *ClickHouseRecorder {
	return &ClickHouseRecorder{db: db}
}

// Record inserts an event row snapshotting the job counters. Failures are
// logged and dropped; a metrics outage never fails an import.
func (r *ClickHouseRecorder) Record(ctx context.Context, event string, job *models.ImportJob) {
	query := `
		INSERT INTO import_events (
			event, job_id, tenant_id, entity_type, file_format, import_mode,
			dry_run, total_rows, processed_rows, imported_count, error_count,
			skipped_count, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	err := r.db.Exec(ctx, query,
		event,
		job.ID.String(),
		job.TenantID.String(),
		string(job.EntityType),
		string(job.FileFormat),
		string(job.ImportMode),
		job.DryRun,
		int64(job.TotalRows),
		int64(job.ProcessedRows),
		int64(job.ImportedCount),
		int64(job.ErrorCount),
		int64(job.SkippedCount),
		time.Now().UTC(),
	)
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("event", event).Warn("Failed to record import event")
	}
}
