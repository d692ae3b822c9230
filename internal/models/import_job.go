package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/types"
)

// ColumnMapping assigns one source column to a target entity field.
// Computed at preview time (or supplied by the caller) and persisted as part
// of the job's mapping config; immutable once execution starts.
type ColumnMapping struct {
	SourceColumn string `json:"source_column"`
	TargetField  string `json:"target_field"`
	CoercionType string `json:"coercion_type,omitempty"`
	Required     bool   `json:"required"`
	DefaultValue string `json:"default_value,omitempty"`
}

// MappingConfig maps source column name to its mapping entry.
type MappingConfig map[string]ColumnMapping

// ImportJob is the aggregate root of one import run.
type ImportJob struct {
	ID         uuid.UUID        `json:"id"`
	TenantID   uuid.UUID        `json:"tenant_id"`
	UserID     uuid.UUID        `json:"user_id"`
	EntityType types.EntityType `json:"entity_type"`

	FileName   string             `json:"file_name"`
	FileFormat types.ImportFormat `json:"file_format"`
	FilePath   string             `json:"file_path"` // blob store key
	FileSize   int64              `json:"file_size"`

	Status     types.JobStatus  `json:"status"`
	ImportMode types.ImportMode `json:"import_mode"`
	DryRun     bool             `json:"dry_run"`

	// DefaultOrgUnitID is applied to rows that carry no org unit of their own.
	DefaultOrgUnitID *uuid.UUID `json:"default_org_unit_id,omitempty"`

	Mapping MappingConfig `json:"mapping_config,omitempty"`

	// Counters are monotonically non-decreasing during execution.
	TotalRows     int `json:"total_rows"`
	ProcessedRows int `json:"processed_rows"`
	ImportedCount int `json:"imported_count"`
	ErrorCount    int `json:"error_count"`
	SkippedCount  int `json:"skipped_count"`

	// ErrorSamples holds a capped sample of validation errors for inline
	// display; the full population lives in import_errors / the error report.
	ErrorSamples  []ValidationError `json:"validation_errors,omitempty"`
	ErrorFilePath string            `json:"error_file_path,omitempty"`
	ErrorMessage  string            `json:"error_message,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ValidationError describes one per-row problem found during validation or
// execution. Row numbers are 1-based.
type ValidationError struct {
	RowNumber     int             `json:"row_number"`
	Field         string          `json:"field"`
	ErrorType     types.ErrorKind `json:"error_type"`
	Message       string          `json:"message"`
	OriginalValue string          `json:"original_value"`
	Suggestion    string          `json:"suggestion,omitempty"`
}

// ImportErrorRecord is the persisted form of a ValidationError, keyed to its job.
type ImportErrorRecord struct {
	ID             uuid.UUID       `json:"id"`
	ImportJobID    uuid.UUID       `json:"import_job_id"`
	RowNumber      int             `json:"row_number"`
	ColumnName     string          `json:"column_name"`
	ErrorType      types.ErrorKind `json:"error_type"`
	ErrorMessage   string          `json:"error_message"`
	OriginalValue  string          `json:"original_value"`
	SuggestedValue string          `json:"suggested_value"`
}
