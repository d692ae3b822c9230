package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
)

// ImportJobRepository handles import job persistence
type ImportJobRepository struct {
	db *PostgresDB
}

// NewImportJobRepository creates a new import job repository
func NewImportJobRepository(db *PostgresDB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

const importJobColumns = `
	id, tenant_id, user_id, entity_type, file_name, file_format, file_path,
	file_size, status, import_mode, dry_run, default_org_unit_id,
	mapping_config, total_rows, processed_rows, imported_count, error_count,
	skipped_count, error_samples, error_file_path, error_message,
	started_at, completed_at, created_at, updated_at`

// CreateJob inserts a new import job.
func (r *ImportJobRepository) CreateJob(ctx context.Context, job *models.ImportJob) error {
	mapping, samples, err := marshalJobJSON(job)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO import_jobs (` + importJobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err = r.db.Pool().Exec(ctx, query,
		job.ID, job.TenantID, job.UserID, job.EntityType,
		job.FileName, job.FileFormat, job.FilePath, job.FileSize,
		job.Status, job.ImportMode, job.DryRun, job.DefaultOrgUnitID,
		mapping, job.TotalRows, job.ProcessedRows, job.ImportedCount,
		job.ErrorCount, job.SkippedCount, samples, job.ErrorFilePath,
		job.ErrorMessage, job.StartedAt, job.CompletedAt,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// GetJob returns one job scoped to its tenant.
func (r *ImportJobRepository) GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error) {
	query := `SELECT ` + importJobColumns + ` FROM import_jobs WHERE id = $1 AND tenant_id = $2`
	return r.scanJob(r.db.Pool().QueryRow(ctx, query, jobID, tenantID))
}

// GetJobByID returns one job without a tenant filter; used by the worker.
func (r *ImportJobRepository) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.ImportJob, error) {
	query := `SELECT ` + importJobColumns + ` FROM import_jobs WHERE id = $1`
	return r.scanJob(r.db.Pool().QueryRow(ctx, query, jobID))
}

// UpdateJob rewrites the mutable fields of a job.
func (r *ImportJobRepository) UpdateJob(ctx context.Context, job *models.ImportJob) error {
	mapping, samples, err := marshalJobJSON(job)
	if err != nil {
		return err
	}

	query := `
		UPDATE import_jobs SET
			status = $2, import_mode = $3, dry_run = $4,
			default_org_unit_id = $5, mapping_config = $6, total_rows = $7,
			processed_rows = $8, imported_count = $9, error_count = $10,
			skipped_count = $11, error_samples = $12, error_file_path = $13,
			error_message = $14, started_at = $15, completed_at = $16,
			updated_at = $17
		WHERE id = $1
	`
	tag, err := r.db.Pool().Exec(ctx, query,
		job.ID, job.Status, job.ImportMode, job.DryRun,
		job.DefaultOrgUnitID, mapping, job.TotalRows,
		job.ProcessedRows, job.ImportedCount, job.ErrorCount,
		job.SkippedCount, samples, job.ErrorFilePath,
		job.ErrorMessage, job.StartedAt, job.CompletedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrJobNotFound
	}
	return nil
}

// UpdateProgress flushes execution counters without rewriting the full row.
func (r *ImportJobRepository) UpdateProgress(ctx context.Context, jobID uuid.UUID, processed, imported, errored, skipped int) error {
	query := `
		UPDATE import_jobs SET
			processed_rows = $2, imported_count = $3, error_count = $4,
			skipped_count = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.db.Pool().Exec(ctx, query,
		jobID, processed, imported, errored, skipped, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrJobNotFound
	}
	return nil
}

// ListJobs returns the tenant's jobs, most recent first.
func (r *ImportJobRepository) ListJobs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.ImportJob, error) {
	query := `
		SELECT ` + importJobColumns + `
		FROM import_jobs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool().Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ImportJob
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ImportJobRepository) scanJob(row rowScanner) (*models.ImportJob, error) {
	var job models.ImportJob
	var mapping, samples []byte

	err := row.Scan(
		&job.ID, &job.TenantID, &job.UserID, &job.EntityType,
		&job.FileName, &job.FileFormat, &job.FilePath, &job.FileSize,
		&job.Status, &job.ImportMode, &job.DryRun, &job.DefaultOrgUnitID,
		&mapping, &job.TotalRows, &job.ProcessedRows, &job.ImportedCount,
		&job.ErrorCount, &job.SkippedCount, &samples, &job.ErrorFilePath,
		&job.ErrorMessage, &job.StartedAt, &job.CompletedAt,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to scan import job: %w", err)
	}

	if len(mapping) > 0 {
		if err := json.Unmarshal(mapping, &job.Mapping); err != nil {
			return nil, fmt.Errorf("failed to decode mapping config: %w", err)
		}
	}
	if len(samples) > 0 {
		if err := json.Unmarshal(samples, &job.ErrorSamples); err != nil {
			return nil, fmt.Errorf("failed to decode error samples: %w", err)
		}
	}
	return &job, nil
}

func marshalJobJSON(job *models.ImportJob) (mapping, samples []byte, err error) {
	mapping, err = json.Marshal(job.Mapping)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode mapping config: %w", err)
	}
	samples, err = json.Marshal(job.ErrorSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode error samples: %w", err)
	}
	return mapping, samples, nil
}
