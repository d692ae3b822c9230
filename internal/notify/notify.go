// Package notify dispatches completion notifications for finished import
// jobs. Delivery transports live behind the Notifier interface; the default
// implementation writes a structured log entry.
package notify

import (
	"context"
	"fmt"

	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
)

// Notifier delivers a completion notice for one finished job.
type Notifier interface {
	ImportCompleted(ctx context.Context, job *models.ImportJob) error
}

// LogNotifier writes the completion notice to the structured log.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// ImportCompleted logs a summary of the finished job.
func (n *LogNotifier) ImportCompleted(_ context.Context, job *models.ImportJob) error {
	n.logger.WithFields(map[string]interface{}{
		"job_id":      job.ID,
		"tenant_id":   job.TenantID,
		"user_id":     job.UserID,
		"entity_type": job.EntityType,
		"status":      job.Status,
		"summary":     Summary(job),
	}).Info("import completed notification")
	return nil
}

// Summary renders the human-readable completion line included in
// notifications.
func Summary(job *models.ImportJob) string {
	return fmt.Sprintf("Your %s import of %s has finished: %d imported, %d errors, %d skipped out of %d rows.",
		job.EntityType, job.FileName, job.ImportedCount, job.ErrorCount, job.SkippedCount, job.TotalRows)
}
