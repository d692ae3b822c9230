package imports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/config"
	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/notify"
	"github.com/bulk-importer/internal/parser"
	"github.com/bulk-importer/internal/processor"
	"github.com/bulk-importer/internal/retry"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

// errorSampleCap bounds the inline error sample persisted on the job row;
// the full population goes to the error store and the CSV report.
const errorSampleCap = 100

// Runner executes queued import jobs row by row. It lives on the worker
// side of the queue and owns the processing state machine from queued to a
// terminal status.
type Runner struct {
	jobs     JobStore
	errors   ErrorStore
	blobs    BlobStore
	store    processor.EntityStore
	checker  validate.ReferenceChecker
	notifier notify.Notifier
	metrics  Recorder
	cfg      config.ImportsConfig
	logger   *logging.Logger
	// retryCfg governs blob fetch retries; defaults to retry.DefaultConfig.
	retryCfg *retry.Config
}

// NewRunner wires the job runner. notifier and metrics may be nil.
func NewRunner(jobs JobStore, errors ErrorStore, blobs BlobStore, store processor.EntityStore,
	checker validate.ReferenceChecker, notifier notify.Notifier, metrics Recorder,
	cfg config.ImportsConfig, logger *logging.Logger) *Runner {
	return &Runner{
		jobs:     jobs,
		errors:   errors,
		blobs:    blobs,
		store:    store,
		checker:  checker,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		retryCfg: retry.DefaultConfig(),
	}
}

// Run processes one queued job to completion. Row-level problems accumulate
// as error records; only job-level failures (missing file, bad mapping,
// store outage) move the job to failed.
func (r *Runner) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := r.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load import job %s: %w", jobID, err)
	}
	logger := r.logger.WithFields(map[string]interface{}{
		"job_id":      job.ID,
		"tenant_id":   job.TenantID,
		"entity_type": job.EntityType,
		"dry_run":     job.DryRun,
	})

	if !job.Status.CanTransition(types.StatusProcessing) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, job.Status, types.StatusProcessing)
	}
	now := time.Now().UTC()
	job.Status = types.StatusProcessing
	job.StartedAt = &now
	job.UpdatedAt = now
	if err := r.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}
	logger.Info("import job processing started")

	if err := r.process(ctx, job, logger); err != nil {
		r.fail(ctx, job, err, logger)
		return err
	}
	return nil
}

func (r *Runner) process(ctx context.Context, job *models.ImportJob, logger *logging.Logger) error {
	if len(job.Mapping) == 0 {
		return types.ErrMappingNotSet
	}

	var content []byte
	err := retry.WithExponentialBackoff(ctx, r.retryCfg, func(ctx context.Context, _ int) error {
		var ferr error
		content, ferr = r.blobs.Get(ctx, job.FilePath)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("read uploaded file: %w", err)
	}

	proc, err := processor.For(job.EntityType, processor.Deps{
		Store:       r.store,
		Checker:     r.checker,
		PhoneRegion: r.cfg.PhoneRegion,
	})
	if err != nil {
		return err
	}
	if proc.RequiresOrgUnit() && job.DefaultOrgUnitID == nil && !mappingHasOrgUnit(job.Mapping) {
		return fmt.Errorf("entity type %s requires an org unit: map an org_unit_id column or assign a default", job.EntityType)
	}

	it, err := parser.ParserFor(job.FileFormat).Rows(content, 0)
	if err != nil {
		return fmt.Errorf("parse rows: %w", err)
	}

	flushEvery := r.cfg.ProgressEveryRows
	if flushEvery <= 0 {
		flushEvery = 100
	}

	var allErrors []models.ValidationError
	rowNumber := 0
	for {
		row, rerr := it.Next()
		if rerr != nil {
			break
		}
		rowNumber++
		job.ProcessedRows++

		if job.DryRun {
			// Dry runs exercise the full validation path without touching
			// the entity store; clean rows count as skipped.
			errs, verr := validateRow(ctx, r.checker, r.cfg.PhoneRegion, job, rowNumber, row)
			if verr != nil {
				return verr
			}
			if len(errs) > 0 {
				job.ErrorCount++
				allErrors = append(allErrors, errs...)
			} else {
				job.SkippedCount++
			}
		} else {
			result := proc.Process(ctx, processor.Input{
				Row:       row,
				RowNumber: rowNumber,
				Mapping:   job.Mapping,
				Mode:      job.ImportMode,
				TenantID:  job.TenantID,
				UserID:    job.UserID,
				OrgUnitID: job.DefaultOrgUnitID,
			})
			if result.Success {
				job.ImportedCount++
			} else {
				job.ErrorCount++
				allErrors = append(allErrors, result.Errors...)
			}
		}

		if job.ProcessedRows%flushEvery == 0 {
			if err := r.jobs.UpdateProgress(ctx, job.ID, job.ProcessedRows,
				job.ImportedCount, job.ErrorCount, job.SkippedCount); err != nil {
				logger.WithError(err).Warn("failed to flush progress")
			}
		}
	}
	job.TotalRows = rowNumber

	if !job.DryRun && len(allErrors) > 0 {
		if err := r.errors.InsertErrors(ctx, errorsToRecords(job.ID, allErrors)); err != nil {
			return fmt.Errorf("persist error records: %w", err)
		}
		reportKey := fmt.Sprintf("imports/%s/%s/errors.csv", job.TenantID, job.ID)
		report, err := buildErrorReport(allErrors)
		if err != nil {
			return err
		}
		if err := r.blobs.Put(ctx, reportKey, report, "text/csv"); err != nil {
			return fmt.Errorf("upload error report: %w", err)
		}
		job.ErrorFilePath = reportKey
	}

	sample := allErrors
	if len(sample) > errorSampleCap {
		sample = sample[:errorSampleCap]
	}
	done := time.Now().UTC()
	job.Status = types.StatusCompleted
	job.ErrorSamples = sample
	job.CompletedAt = &done
	job.UpdatedAt = done
	if err := r.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}

	if r.metrics != nil {
		r.metrics.Record(ctx, EventImportCompleted, job)
	}
	if r.notifier != nil {
		if err := r.notifier.ImportCompleted(ctx, job); err != nil {
			logger.WithError(err).Warn("failed to send completion notification")
		}
	}
	logger.WithFields(map[string]interface{}{
		"total_rows": job.TotalRows,
		"imported":   job.ImportedCount,
		"errors":     job.ErrorCount,
		"skipped":    job.SkippedCount,
	}).Info("import job completed")
	return nil
}

// fail moves the job to failed, freezing the counters reached so far.
func (r *Runner) fail(ctx context.Context, job *models.ImportJob, cause error, logger *logging.Logger) {
	now := time.Now().UTC()
	job.Status = types.StatusFailed
	job.ErrorMessage = cause.Error()
	job.CompletedAt = &now
	job.UpdatedAt = now
	if err := r.jobs.UpdateJob(ctx, job); err != nil {
		logger.WithError(err).Error("failed to mark job failed")
	}
	if r.metrics != nil {
		r.metrics.Record(ctx, EventImportFailed, job)
	}
	logger.WithError(cause).Error("import job failed")
}

func mappingHasOrgUnit(mapping models.MappingConfig) bool {
	for _, m := range mapping {
		if m.TargetField == "org_unit_id" {
			return true
		}
	}
	return false
}
