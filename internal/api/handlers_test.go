package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulk-importer/internal/imports"
	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/progress"
	"github.com/bulk-importer/internal/types"
)

// importServiceStub returns canned values and records the last call's inputs.
type importServiceStub struct {
	job     *models.ImportJob
	preview *imports.PreviewResult
	summary *imports.ValidationSummary
	jobs    []*models.ImportJob
	report  []byte
	err     error

	lastUpload imports.UploadRequest
	lastDryRun bool
}

func (s *importServiceStub) Upload(_ context.Context, req imports.UploadRequest) (*models.ImportJob, error) {
	s.lastUpload = req
	return s.job, s.err
}

func (s *importServiceStub) Preview(context.Context, uuid.UUID, uuid.UUID) (*imports.PreviewResult, error) {
	return s.preview, s.err
}

func (s *importServiceStub) UpdateMapping(_ context.Context, _, _ uuid.UUID, _ models.MappingConfig) (*models.ImportJob, error) {
	return s.job, s.err
}

func (s *importServiceStub) Validate(context.Context, uuid.UUID, uuid.UUID) (*imports.ValidationSummary, error) {
	return s.summary, s.err
}

func (s *importServiceStub) Execute(_ context.Context, _, _ uuid.UUID, dryRun bool) (*models.ImportJob, error) {
	s.lastDryRun = dryRun
	return s.job, s.err
}

func (s *importServiceStub) GetJob(context.Context, uuid.UUID, uuid.UUID) (*models.ImportJob, error) {
	return s.job, s.err
}

func (s *importServiceStub) ListJobs(context.Context, uuid.UUID, int, int) ([]*models.ImportJob, error) {
	return s.jobs, s.err
}

func (s *importServiceStub) ErrorReport(context.Context, uuid.UUID, uuid.UUID) ([]byte, string, error) {
	return s.report, "import_errors.csv", s.err
}

// watcherStub replays a fixed event sequence.
type watcherStub struct {
	events []progress.Event
}

func (w *watcherStub) Watch(context.Context, uuid.UUID, uuid.UUID) <-chan progress.Event {
	ch := make(chan progress.Event, len(w.events))
	for _, ev := range w.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func newTestServer(svc ImportServiceInterface, watcher ProgressWatcherInterface) *Server {
	logger := logging.NewLogger(logging.LevelError, logging.FormatJSON)
	return NewServer(&ServerConfig{
		Host:            "127.0.0.1",
		Port:            "0",
		ReadTimeout:     5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: time.Second,
		MaxUploadBytes:  1 << 20,
		RateLimitRPS:    100,
		RateLimitBurst:  100,
	}, svc, watcher, logger)
}

func withIdentity(req *http.Request) *http.Request {
	req.Header.Set("X-Tenant-ID", uuid.NewString())
	req.Header.Set("X-User-ID", uuid.NewString())
	return req
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUploadCreatesJob(t *testing.T) {
	svc := &importServiceStub{job: &models.ImportJob{
		ID:     uuid.New(),
		Status: types.StatusPending,
	}}
	server := newTestServer(svc, &watcherStub{})

	body, contentType := multipartUpload(t, "people.csv", "First Name,Surname\nAda,Lovelace\n", map[string]string{
		"entity_type": "people",
		"mode":        "create_only",
	})

	req := withIdentity(httptest.NewRequest("POST", "/api/v1/imports", body))
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, types.EntityPeople, svc.lastUpload.EntityType)
	assert.Equal(t, types.ModeCreateOnly, svc.lastUpload.Mode)
	assert.Equal(t, "people.csv", svc.lastUpload.FileName)
	assert.NotEmpty(t, svc.lastUpload.Content)
}

func TestUploadRequiresIdentityHeaders(t *testing.T) {
	server := newTestServer(&importServiceStub{}, &watcherStub{})

	body, contentType := multipartUpload(t, "people.csv", "a,b\n1,2\n", map[string]string{"entity_type": "people"})
	req := httptest.NewRequest("POST", "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadRejectsMissingFileField(t *testing.T) {
	server := newTestServer(&importServiceStub{}, &watcherStub{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("entity_type", "people"))
	require.NoError(t, mw.Close())

	req := withIdentity(httptest.NewRequest("POST", "/api/v1/imports", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJobNotFound(t *testing.T) {
	server := newTestServer(&importServiceStub{err: types.ErrJobNotFound}, &watcherStub{})

	req := withIdentity(httptest.NewRequest("GET", "/api/v1/imports/jobs/"+uuid.NewString(), nil))
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestGetJobRejectsMalformedID(t *testing.T) {
	server := newTestServer(&importServiceStub{}, &watcherStub{})

	req := withIdentity(httptest.NewRequest("GET", "/api/v1/imports/jobs/not-a-uuid", nil))
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateWithoutMappingReturns400(t *testing.T) {
	server := newTestServer(&importServiceStub{err: types.ErrMappingNotSet}, &watcherStub{})

	req := withIdentity(httptest.NewRequest("POST", fmt.Sprintf("/api/v1/imports/jobs/%s/validate", uuid.New()), nil))
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeMappingNotSet, resp.Error.Code)
}

func TestExecuteConflictOnInvalidTransition(t *testing.T) {
	server := newTestServer(&importServiceStub{err: types.ErrInvalidTransition}, &watcherStub{})

	req := withIdentity(httptest.NewRequest("POST", fmt.Sprintf("/api/v1/imports/jobs/%s/execute", uuid.New()), nil))
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExecutePassesDryRunFlag(t *testing.T) {
	svc := &importServiceStub{job: &models.ImportJob{ID: uuid.New(), Status: types.StatusQueued}}
	server := newTestServer(svc, &watcherStub{})

	body := bytes.NewReader([]byte(`{"dry_run": true}`))
	req := withIdentity(httptest.NewRequest("POST", fmt.Sprintf("/api/v1/imports/jobs/%s/execute", uuid.New()), body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, svc.lastDryRun)
}

func TestUpdateMappingRejectsEmptyMapping(t *testing.T) {
	server := newTestServer(&importServiceStub{}, &watcherStub{})

	body := bytes.NewReader([]byte(`{"mapping": {}}`))
	req := withIdentity(httptest.NewRequest("PUT", fmt.Sprintf("/api/v1/imports/jobs/%s/mapping", uuid.New()), body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorReportDownloadHeaders(t *testing.T) {
	report := []byte("row_number,field,error_type,error_message,original_value,suggestion\n")
	server := newTestServer(&importServiceStub{report: report}, &watcherStub{})

	req := withIdentity(httptest.NewRequest("GET", fmt.Sprintf("/api/v1/imports/jobs/%s/errors", uuid.New()), nil))
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "import_errors.csv")
	assert.Equal(t, report, w.Body.Bytes())
}

func TestStreamEmitsServerSentEvents(t *testing.T) {
	jobID := uuid.New()
	watcher := &watcherStub{events: []progress.Event{
		{Type: progress.EventProgress, JobID: jobID, Status: types.StatusProcessing, ProcessedRows: 10},
		{Type: progress.EventComplete, JobID: jobID, Status: types.StatusCompleted, ProcessedRows: 20},
	}}
	server := newTestServer(&importServiceStub{}, watcher)

	req := withIdentity(httptest.NewRequest("GET", fmt.Sprintf("/api/v1/imports/jobs/%s/stream", jobID), nil))
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: progress\n")
	assert.Contains(t, body, "event: complete\n")
	assert.Equal(t, 2, strings.Count(body, "data: "))
}

func TestListJobsReturnsPage(t *testing.T) {
	jobs := []*models.ImportJob{
		{ID: uuid.New(), Status: types.StatusCompleted},
		{ID: uuid.New(), Status: types.StatusPending},
	}
	server := newTestServer(&importServiceStub{jobs: jobs}, &watcherStub{})

	req := withIdentity(httptest.NewRequest("GET", "/api/v1/imports/jobs?limit=2&offset=0", nil))
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Jobs []*models.ImportJob `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Jobs, 2)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&importServiceStub{}, &watcherStub{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
