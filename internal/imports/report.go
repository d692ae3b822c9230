package imports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/bulk-importer/internal/models"
)

// reportHeader is the fixed column order of the downloadable error report.
var reportHeader = []string{
	"row_number", "field", "error_type", "error_message", "original_value", "suggestion",
}

// buildErrorReport renders validation errors as a CSV document.
func buildErrorReport(errs []models.ValidationError) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(reportHeader); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	for _, e := range errs {
		record := []string{
			strconv.Itoa(e.RowNumber),
			e.Field,
			string(e.ErrorType),
			e.Message,
			e.OriginalValue,
			e.Suggestion,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush report: %w", err)
	}
	return buf.Bytes(), nil
}

// recordsToErrors converts persisted error records back to their in-memory
// form for report rendering.
func recordsToErrors(records []models.ImportErrorRecord) []models.ValidationError {
	errs := make([]models.ValidationError, 0, len(records))
	for _, r := range records {
		errs = append(errs, models.ValidationError{
			RowNumber:     r.RowNumber,
			Field:         r.ColumnName,
			ErrorType:     r.ErrorType,
			Message:       r.ErrorMessage,
			OriginalValue: r.OriginalValue,
			Suggestion:    r.SuggestedValue,
		})
	}
	return errs
}

// errorsToRecords converts validation errors into persistable records keyed
// to their job.
func errorsToRecords(jobID uuid.UUID, errs []models.ValidationError) []models.ImportErrorRecord {
	records := make([]models.ImportErrorRecord, 0, len(errs))
	for _, e := range errs {
		records = append(records, models.ImportErrorRecord{
			ID:             uuid.New(),
			ImportJobID:    jobID,
			RowNumber:      e.RowNumber,
			ColumnName:     e.Field,
			ErrorType:      e.ErrorType,
			ErrorMessage:   e.Message,
			OriginalValue:  e.OriginalValue,
			SuggestedValue: e.Suggestion,
		})
	}
	return records
}
