package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bulk-importer/internal/imports"
	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
)

// jobIDFromRequest parses the {id} path variable, writing an error response
// and returning false when it is not a UUID.
func jobIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Job id must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// handleUpload handles POST /api/v1/imports - upload a file and create a job
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, ErrCodeInvalidInput, "Upload too large or not multipart form data", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Multipart field 'file' required", nil)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Failed to read uploaded file", nil)
		return
	}

	job, err := s.importService.Upload(r.Context(), imports.UploadRequest{
		TenantID:   caller.TenantID,
		UserID:     caller.UserID,
		EntityType: types.EntityType(r.FormValue("entity_type")),
		Mode:       types.ImportMode(r.FormValue("mode")),
		FileName:   header.Filename,
		Content:    content,
	})
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("Upload failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusCreated, job)
}

// handleGetJob handles GET /api/v1/imports/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	jobID, ok := jobIDFromRequest(w, r)
	if !ok {
		return
	}

	job, err := s.importService.GetJob(r.Context(), caller.TenantID, jobID)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// handleListJobs handles GET /api/v1/imports/jobs with limit/offset paging
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	jobs, err := s.importService.ListJobs(r.Context(), caller.TenantID, limit, offset)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}

// handlePreview handles POST /api/v1/imports/jobs/{id}/preview
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	jobID, ok := jobIDFromRequest(w, r)
	if !ok {
		return
	}

	result, err := s.importService.Preview(r.Context(), caller.TenantID, jobID)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("Preview failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleUpdateMapping handles PUT /api/v1/imports/jobs/{id}/mapping
func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	jobID, ok := jobIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Mapping models.MappingConfig `json:"mapping"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if len(req.Mapping) == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Mapping must not be empty", nil)
		return
	}

	job, err := s.importService.UpdateMapping(r.Context(), caller.TenantID, jobID, req.Mapping)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// handleValidate handles POST /api/v1/imports/jobs/{id}/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	jobID, ok := jobIDFromRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.importService.Validate(r.Context(), caller.TenantID, jobID)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("Validation failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleExecute handles POST /api/v1/imports/jobs/{id}/execute
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	jobID, ok := jobIDFromRequest(w, r)
	if !ok {
		return
	}

	// Body is optional; absence means a real run.
	var req struct {
		DryRun bool `json:"dry_run"`
	}
	if err := parseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	job, err := s.importService.Execute(r.Context(), caller.TenantID, jobID, req.DryRun)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusAccepted, job)
}

// handleErrorReport handles GET /api/v1/imports/jobs/{id}/errors - CSV download
func (s *Server) handleErrorReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	jobID, ok := jobIDFromRequest(w, r)
	if !ok {
		return
	}

	report, filename, err := s.importService.ErrorReport(r.Context(), caller.TenantID, jobID)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report)
}

// handleStream handles GET /api/v1/imports/jobs/{id}/stream - progress feed
// as server-sent events. The stream closes when the job reaches a terminal
// status, the watcher times out, or the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	jobID, ok := jobIDFromRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range s.watcher.Watch(r.Context(), caller.TenantID, jobID) {
		data, err := json.Marshal(event)
		if err != nil {
			logging.FromContext(r.Context()).WithError(err).Error("Failed to encode progress event")
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
		flusher.Flush()
	}
}
