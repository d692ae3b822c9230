package imports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/coerce"
	"github.com/bulk-importer/internal/config"
	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/mapper"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/parser"
	"github.com/bulk-importer/internal/types"
	"github.com/bulk-importer/internal/validate"
)

// Service implements the synchronous import job operations.
type Service struct {
	jobs    JobStore
	errors  ErrorStore
	blobs   BlobStore
	queue   Enqueuer
	checker validate.ReferenceChecker
	orgs    OrgUnitResolver
	metrics Recorder
	cfg     config.ImportsConfig
	logger  *logging.Logger
}

// NewService wires the import service. metrics and orgs may be nil.
func NewService(jobs JobStore, errors ErrorStore, blobs BlobStore, queue Enqueuer,
	checker validate.ReferenceChecker, orgs OrgUnitResolver, metrics Recorder,
	cfg config.ImportsConfig, logger *logging.Logger) *Service {
	return &Service{
		jobs:    jobs,
		errors:  errors,
		blobs:   blobs,
		queue:   queue,
		checker: checker,
		orgs:    orgs,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

// UploadRequest carries one file upload.
type UploadRequest struct {
	TenantID   uuid.UUID
	UserID     uuid.UUID
	EntityType types.EntityType
	Mode       types.ImportMode
	FileName   string
	Content    []byte
}

// Upload stores the file, detects its format, and creates a pending job.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.ImportJob, error) {
	if !req.EntityType.Valid() {
		return nil, &types.ServiceError{
			Code:    "INVALID_ENTITY_TYPE",
			Message: fmt.Sprintf("unsupported entity type: %s", req.EntityType),
		}
	}
	if req.Mode == "" {
		req.Mode = types.ModeCreateOnly
	}
	if !req.Mode.Valid() {
		return nil, &types.ServiceError{
			Code:    "INVALID_IMPORT_MODE",
			Message: fmt.Sprintf("unsupported import mode: %s", req.Mode),
		}
	}
	if len(req.Content) == 0 {
		return nil, &types.ServiceError{Code: "EMPTY_FILE", Message: "uploaded file is empty"}
	}

	format := parser.DetectFormat(req.Content, req.FileName)
	if format == types.FormatUnknown {
		return nil, types.ErrUnsupportedFormat
	}

	jobID := uuid.New()
	key := fmt.Sprintf("imports/%s/%s/%s", req.TenantID, jobID, req.FileName)
	if err := s.blobs.Put(ctx, key, req.Content, contentTypeFor(format)); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	var defaultOrgUnit *uuid.UUID
	if s.orgs != nil {
		orgUnit, err := s.orgs.DefaultOrgUnit(ctx, req.TenantID, req.UserID)
		if err != nil {
			// A missing assignment is not fatal at upload time; entity types
			// that need an org unit fail later with a clear message.
			s.logger.WithError(err).WithField("user_id", req.UserID).
				Warn("failed to resolve default org unit")
		} else {
			defaultOrgUnit = orgUnit
		}
	}

	now := time.Now().UTC()
	job := &models.ImportJob{
		ID:               jobID,
		TenantID:         req.TenantID,
		UserID:           req.UserID,
		EntityType:       req.EntityType,
		FileName:         req.FileName,
		FileFormat:       format,
		FilePath:         key,
		FileSize:         int64(len(req.Content)),
		Status:           types.StatusPending,
		ImportMode:       req.Mode,
		DefaultOrgUnitID: defaultOrgUnit,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	s.record(ctx, EventImportStarted, job)
	s.logger.WithFields(map[string]interface{}{
		"job_id":      job.ID,
		"tenant_id":   job.TenantID,
		"entity_type": job.EntityType,
		"format":      job.FileFormat,
		"file_size":   job.FileSize,
	}).Info("import job created")
	return job, nil
}

// PreviewResult is the preview payload: detected structure, the effective
// column mapping, ranked alternatives, and a coerced sample.
type PreviewResult struct {
	JobID            uuid.UUID                    `json:"job_id"`
	Headers          []string                     `json:"headers"`
	TotalRows        int                          `json:"total_rows"`
	Mapping          models.MappingConfig         `json:"mapping"`
	Suggestions      map[string]mapper.Suggestion `json:"suggestions"`
	SampleRows       []map[string]interface{}     `json:"sample_rows"`
	UnmappedRequired []string                     `json:"unmapped_required_fields"`
}

// Preview parses the stored file, auto-maps columns unless the job already
// carries a mapping, and coerces a bounded sample of rows for display.
func (s *Service) Preview(ctx context.Context, tenantID, jobID uuid.UUID) (*PreviewResult, error) {
	job, err := s.jobs.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	content, err := s.blobs.Get(ctx, job.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}

	p := parser.ParserFor(job.FileFormat)
	headers, err := p.Headers(content)
	if err != nil {
		return nil, fmt.Errorf("parse headers: %w", err)
	}
	totalRows, err := p.RowCount(content)
	if err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	mapping := job.Mapping
	if len(mapping) == 0 {
		mapping = mapper.AutoMapColumns(headers, job.EntityType)
	}

	sample, err := s.sampleRows(p, content, job.EntityType, mapping)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, job, types.StatusPreviewing, func(j *models.ImportJob) {
		j.Mapping = mapping
		j.TotalRows = totalRows
	}); err != nil {
		return nil, err
	}

	return &PreviewResult{
		JobID:            job.ID,
		Headers:          headers,
		TotalRows:        totalRows,
		Mapping:          mapping,
		Suggestions:      mapper.SuggestMappings(headers, job.EntityType),
		SampleRows:       sample,
		UnmappedRequired: mapper.UnmappedRequiredFields(mapping, job.EntityType),
	}, nil
}

// sampleRows coerces the first PreviewRows data rows through the mapping.
// Cells that fail coercion keep their original string so the caller can see
// what the file actually contains.
func (s *Service) sampleRows(p parser.TableParser, content []byte, entity types.EntityType, mapping models.MappingConfig) ([]map[string]interface{}, error) {
	limit := s.cfg.PreviewRows
	if limit <= 0 {
		limit = 10
	}
	it, err := p.Rows(content, limit)
	if err != nil {
		return nil, fmt.Errorf("parse sample rows: %w", err)
	}

	var sample []map[string]interface{}
	for {
		row, err := it.Next()
		if err != nil {
			break
		}
		coerced := make(map[string]interface{}, len(mapping))
		for sourceCol, m := range mapping {
			raw, ok := row[sourceCol]
			if !ok || raw == "" {
				continue
			}
			field, known := mapper.FieldFor(entity, m.TargetField)
			if !known {
				coerced[m.TargetField] = raw
				continue
			}
			result := coerce.Coerce(raw, field.Coercion, coerce.Hints{
				EnumKind:    field.EnumKind,
				PhoneRegion: s.cfg.PhoneRegion,
			})
			if result.Success {
				coerced[m.TargetField] = result.Value
			} else {
				coerced[m.TargetField] = raw
			}
		}
		sample = append(sample, coerced)
	}
	return sample, nil
}

// UpdateMapping replaces the job's column mapping. Entries targeting declared
// fields are enriched with the registry's required flag and coercion type;
// unknown targets pass through untouched so manual lookup keys still work.
func (s *Service) UpdateMapping(ctx context.Context, tenantID, jobID uuid.UUID, mapping models.MappingConfig) (*models.ImportJob, error) {
	job, err := s.jobs.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	enriched := make(models.MappingConfig, len(mapping))
	for sourceCol, m := range mapping {
		if field, ok := mapper.FieldFor(job.EntityType, m.TargetField); ok {
			m.Required = field.Required
			m.CoercionType = string(field.Coercion)
		}
		enriched[sourceCol] = m
	}

	if err := s.transition(ctx, job, types.StatusMapping, func(j *models.ImportJob) {
		j.Mapping = enriched
	}); err != nil {
		return nil, err
	}
	return job, nil
}

// ValidationSummary aggregates the outcome of a full-file validation pass.
type ValidationSummary struct {
	JobID           uuid.UUID                `json:"job_id"`
	TotalRows       int                      `json:"total_rows"`
	TotalErrors     int                      `json:"total_errors"`
	ErrorsByType    map[types.ErrorKind]int  `json:"errors_by_type"`
	SampleErrors    []models.ValidationError `json:"sample_errors"`
	ErrorsTruncated bool                     `json:"errors_truncated"`
}

// Validate runs every validation layer over the whole file without writing
// any entities. Error accumulation stops at the configured cap; the summary
// flags truncation explicitly.
func (s *Service) Validate(ctx context.Context, tenantID, jobID uuid.UUID) (*ValidationSummary, error) {
	job, err := s.jobs.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if len(job.Mapping) == 0 {
		return nil, types.ErrMappingNotSet
	}

	content, err := s.blobs.Get(ctx, job.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}

	p := parser.ParserFor(job.FileFormat)
	it, err := p.Rows(content, 0)
	if err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}

	maxErrors := s.cfg.MaxValidationErrors
	if maxErrors <= 0 {
		maxErrors = 100
	}

	summary := &ValidationSummary{
		JobID:        job.ID,
		ErrorsByType: map[types.ErrorKind]int{},
	}
	rowNumber := 0
	for {
		row, rerr := it.Next()
		if rerr != nil {
			break
		}
		rowNumber++

		errs, verr := validateRow(ctx, s.checker, s.cfg.PhoneRegion, job, rowNumber, row)
		if verr != nil {
			return nil, verr
		}
		for _, e := range errs {
			summary.TotalErrors++
			summary.ErrorsByType[e.ErrorType]++
			if len(summary.SampleErrors) < maxErrors {
				summary.SampleErrors = append(summary.SampleErrors, e)
			}
		}
		if summary.TotalErrors >= maxErrors {
			summary.ErrorsTruncated = true
			break
		}
	}
	summary.TotalRows = rowNumber
	if summary.ErrorsTruncated && job.TotalRows > rowNumber {
		summary.TotalRows = job.TotalRows
	}

	if err := s.transition(ctx, job, types.StatusValidating, func(j *models.ImportJob) {
		// A truncated scan stopped mid-file; the count from upload stands.
		if !summary.ErrorsTruncated {
			j.TotalRows = rowNumber
		}
		j.ErrorSamples = summary.SampleErrors
	}); err != nil {
		return nil, err
	}

	if summary.TotalErrors > 0 {
		s.record(ctx, EventImportValidationErr, job)
	}
	return summary, nil
}

// validateRow applies required, coercion, format, reference, uniqueness, and
// business checks to one row. Shared by the synchronous validation pass and
// dry-run execution. The returned error flags infrastructure failure, not
// row problems.
func validateRow(ctx context.Context, checker validate.ReferenceChecker, phoneRegion string, job *models.ImportJob, rowNumber int, row parser.Row) ([]models.ValidationError, error) {
	mapped := projectRow(row, job.Mapping)
	coercedRow := make(map[string]interface{}, len(mapped))
	var errs []models.ValidationError

	for _, field := range mapper.FieldsFor(job.EntityType) {
		value := mapped[field.Name]

		if value == "" {
			// A job-level default satisfies a required org unit.
			if field.Name == "org_unit_id" && job.DefaultOrgUnitID != nil {
				continue
			}
			if field.Required {
				errs = append(errs, models.ValidationError{
					RowNumber: rowNumber,
					Field:     field.Name,
					ErrorType: types.ErrorRequired,
					Message:   validate.Required(value, field.Name),
				})
			}
			continue
		}

		result := coerce.Coerce(value, field.Coercion, coerce.Hints{
			EnumKind:    field.EnumKind,
			PhoneRegion: phoneRegion,
		})
		if !result.Success {
			e := models.ValidationError{
				RowNumber:     rowNumber,
				Field:         field.Name,
				ErrorType:     types.ErrorCoercion,
				Message:       result.Error,
				OriginalValue: value,
			}
			if field.Coercion == coerce.TypeEnum {
				e.Suggestion = coerce.ClosestEnumValue(value, field.EnumKind)
			}
			errs = append(errs, e)
			continue
		}
		coercedRow[field.Name] = result.Value

		if field.Ref != mapper.RefNone {
			msg, err := validate.Reference(ctx, checker, job.TenantID, field.Ref, field.Name, value)
			if err != nil {
				return nil, err
			}
			if msg != "" {
				errs = append(errs, models.ValidationError{
					RowNumber:     rowNumber,
					Field:         field.Name,
					ErrorType:     types.ErrorReference,
					Message:       msg,
					OriginalValue: value,
				})
				continue
			}
		}

		if field.Unique {
			strValue, _ := result.Value.(string)
			msg, err := validate.Unique(ctx, checker, job.TenantID, field.Name, strValue, nil)
			if err != nil {
				return nil, err
			}
			if msg != "" && job.ImportMode == types.ModeCreateOnly {
				errs = append(errs, models.ValidationError{
					RowNumber:     rowNumber,
					Field:         field.Name,
					ErrorType:     types.ErrorConstraint,
					Message:       msg,
					OriginalValue: value,
				})
			}
		}
	}

	errs = append(errs, validate.BusinessRules(job.EntityType, rowNumber, coercedRow)...)
	return errs, nil
}

// Execute marks the job for execution and hands it to the queue. DryRun runs
// the full pipeline without persisting entities.
func (s *Service) Execute(ctx context.Context, tenantID, jobID uuid.UUID, dryRun bool) (*models.ImportJob, error) {
	job, err := s.jobs.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if len(job.Mapping) == 0 {
		return nil, types.ErrMappingNotSet
	}

	if err := s.transition(ctx, job, types.StatusQueued, func(j *models.ImportJob) {
		j.DryRun = dryRun
	}); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, TaskProcessImport, job.ID); err != nil {
		return nil, fmt.Errorf("enqueue import job: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"job_id":  job.ID,
		"dry_run": dryRun,
	}).Info("import job queued")
	return job, nil
}

// GetJob returns one job scoped to its tenant.
func (s *Service) GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error) {
	return s.jobs.GetJob(ctx, tenantID, jobID)
}

// ListJobs returns the tenant's jobs, most recent first.
func (s *Service) ListJobs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.ImportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.ListJobs(ctx, tenantID, limit, offset)
}

// ErrorReport returns the job's error report as CSV bytes plus a download
// filename. The stored report is preferred; when none was uploaded the
// report is rebuilt from the persisted error records.
func (s *Service) ErrorReport(ctx context.Context, tenantID, jobID uuid.UUID) ([]byte, string, error) {
	job, err := s.jobs.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("import_errors_%s.csv", job.ID)

	if job.ErrorFilePath != "" {
		data, err := s.blobs.Get(ctx, job.ErrorFilePath)
		if err != nil {
			return nil, "", fmt.Errorf("read error report: %w", err)
		}
		return data, filename, nil
	}

	records, err := s.errors.ListErrors(ctx, job.ID)
	if err != nil {
		return nil, "", fmt.Errorf("list error records: %w", err)
	}
	data, err := buildErrorReport(recordsToErrors(records))
	if err != nil {
		return nil, "", err
	}
	return data, filename, nil
}

// transition moves the job to next after mutating it, enforcing the status
// graph, and persists the result.
func (s *Service) transition(ctx context.Context, job *models.ImportJob, next types.JobStatus, mutate func(*models.ImportJob)) error {
	if !job.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, job.Status, next)
	}
	if mutate != nil {
		mutate(job)
	}
	job.Status = next
	job.UpdatedAt = time.Now().UTC()
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("update import job: %w", err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, event string, job *models.ImportJob) {
	if s.metrics != nil {
		s.metrics.Record(ctx, event, job)
	}
}

// projectRow maps raw source values onto target field names, applying
// per-column defaults for blank cells.
func projectRow(row parser.Row, mapping models.MappingConfig) map[string]string {
	mapped := make(map[string]string, len(mapping))
	for sourceCol, m := range mapping {
		value, ok := row[sourceCol]
		if !ok || strings.TrimSpace(value) == "" {
			if m.DefaultValue != "" {
				mapped[m.TargetField] = m.DefaultValue
			}
			continue
		}
		mapped[m.TargetField] = strings.TrimSpace(value)
	}
	return mapped
}

func contentTypeFor(format types.ImportFormat) string {
	switch format {
	case types.FormatCSV:
		return "text/csv"
	case types.FormatTSV:
		return "text/tab-separated-values"
	case types.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case types.FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}
