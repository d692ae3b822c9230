package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bulk-importer/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeMappingNotSet     = "MAPPING_NOT_SET"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// mapServiceError maps pipeline errors to HTTP status codes.
func mapServiceError(err error) (int, string, string) {
	switch {
	case errors.Is(err, types.ErrJobNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "Import job not found"
	case errors.Is(err, types.ErrMappingNotSet):
		return http.StatusBadRequest, ErrCodeMappingNotSet, "Column mapping must be configured first"
	case errors.Is(err, types.ErrUnsupportedFormat):
		return http.StatusBadRequest, ErrCodeUnsupportedFormat, "File format could not be detected"
	case errors.Is(err, types.ErrInvalidTransition):
		return http.StatusConflict, ErrCodeInvalidState, "Operation is not allowed in the job's current status"
	}

	var serviceErr *types.ServiceError
	if errors.As(err, &serviceErr) {
		return http.StatusBadRequest, serviceErr.Code, serviceErr.Message
	}

	return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"
}
