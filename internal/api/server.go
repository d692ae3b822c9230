// Package api provides the HTTP API server for the import pipeline.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bulk-importer/internal/imports"
	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/progress"
)

// Service interfaces for dependency injection and testing

// ImportServiceInterface defines the interface for import pipeline operations
type ImportServiceInterface interface {
	Upload(ctx context.Context, req imports.UploadRequest) (*models.ImportJob, error)
	Preview(ctx context.Context, tenantID, jobID uuid.UUID) (*imports.PreviewResult, error)
	UpdateMapping(ctx context.Context, tenantID, jobID uuid.UUID, mapping models.MappingConfig) (*models.ImportJob, error)
	Validate(ctx context.Context, tenantID, jobID uuid.UUID) (*imports.ValidationSummary, error)
	Execute(ctx context.Context, tenantID, jobID uuid.UUID, dryRun bool) (*models.ImportJob, error)
	GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error)
	ListJobs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.ImportJob, error)
	ErrorReport(ctx context.Context, tenantID, jobID uuid.UUID) ([]byte, string, error)
}

// ProgressWatcherInterface defines the interface for the job progress feed
type ProgressWatcherInterface interface {
	Watch(ctx context.Context, tenantID, jobID uuid.UUID) <-chan progress.Event
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	importService ImportServiceInterface
	watcher       ProgressWatcherInterface
	config        *ServerConfig
	logger        *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	importService ImportServiceInterface,
	watcher ProgressWatcherInterface,
	logger *logging.Logger,
) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		importService: importService,
		watcher:       watcher,
		config:        config,
		logger:        logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	// WriteTimeout stays unset: the progress stream holds its connection
	// open for up to the watcher timeout.
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:     s.router,
		ReadTimeout: s.config.ReadTimeout,
		IdleTimeout: s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/imports", s.handleUpload).Methods("POST")
	api.HandleFunc("/imports/jobs", s.handleListJobs).Methods("GET")
	api.HandleFunc("/imports/jobs/{id}", s.handleGetJob).Methods("GET")
	api.HandleFunc("/imports/jobs/{id}/preview", s.handlePreview).Methods("POST")
	api.HandleFunc("/imports/jobs/{id}/mapping", s.handleUpdateMapping).Methods("PUT")
	api.HandleFunc("/imports/jobs/{id}/validate", s.handleValidate).Methods("POST")
	api.HandleFunc("/imports/jobs/{id}/execute", s.handleExecute).Methods("POST")
	api.HandleFunc("/imports/jobs/{id}/errors", s.handleErrorReport).Methods("GET")
	api.HandleFunc("/imports/jobs/{id}/stream", s.handleStream).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "bulk-importer",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
