package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bulk-importer/internal/models"
)

// ImportErrorRepository persists per-row import error records
type ImportErrorRepository struct {
	db *PostgresDB
}

// NewImportErrorRepository creates a new import error repository
func NewImportErrorRepository(db *PostgresDB) *ImportErrorRepository {
	return &ImportErrorRepository{db: db}
}

// InsertErrors writes a batch of error records in one round trip.
func (r *ImportErrorRepository) InsertErrors(ctx context.Context, records []models.ImportErrorRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO import_errors (
			id, import_job_id, row_number, column_name, error_type,
			error_message, original_value, suggested_value
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, rec := range records {
		batch.Queue(query,
			rec.ID, rec.ImportJobID, rec.RowNumber, rec.ColumnName,
			rec.ErrorType, rec.ErrorMessage, rec.OriginalValue, rec.SuggestedValue)
	}

	results := r.db.Pool().SendBatch(ctx, batch)
	defer func() {
		_ = results.Close() // nolint:errcheck // cleanup in defer
	}()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert import errors: %w", err)
		}
	}
	return nil
}

// ListErrors returns every error record for a job in row order.
func (r *ImportErrorRepository) ListErrors(ctx context.Context, jobID uuid.UUID) ([]models.ImportErrorRecord, error) {
	query := `
		SELECT id, import_job_id, row_number, column_name, error_type,
			error_message, original_value, suggested_value
		FROM import_errors
		WHERE import_job_id = $1
		ORDER BY row_number, column_name
	`
	rows, err := r.db.Pool().Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list import errors: %w", err)
	}
	defer rows.Close()

	var records []models.ImportErrorRecord
	for rows.Next() {
		var rec models.ImportErrorRecord
		if err := rows.Scan(
			&rec.ID, &rec.ImportJobID, &rec.RowNumber, &rec.ColumnName,
			&rec.ErrorType, &rec.ErrorMessage, &rec.OriginalValue, &rec.SuggestedValue,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import error: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
