// Package main provides the API server entry point for the bulk importer service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bulk-importer/internal/api"
	"github.com/bulk-importer/internal/config"
	"github.com/bulk-importer/internal/imports"
	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/metrics"
	"github.com/bulk-importer/internal/progress"
	"github.com/bulk-importer/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize storage connections
	logger.Info("Connecting to storage backends...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	blobs, err := storage.NewBlobStore(context.Background(), &cfg.Blob)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to object store")
	}

	// Metrics sink is optional: the pipeline runs without it
	var recorder imports.Recorder
	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Warn("ClickHouse unavailable, import metrics disabled")
	} else {
		defer clickhouse.Close()
		recorder = metrics.NewClickHouseRecorder(clickhouse)
	}

	logger.Info("Storage connections established")

	// Initialize repositories
	jobRepo := storage.NewImportJobRepository(postgres)
	errorRepo := storage.NewImportErrorRepository(postgres)
	refRepo := storage.NewReferenceRepository(postgres)
	queue := storage.NewRedisQueue(redis)

	// Initialize the import service
	importService := imports.NewService(jobRepo, errorRepo, blobs, queue,
		refRepo, refRepo, recorder, cfg.Imports, logger)

	watcher := progress.NewWatcher(jobRepo, cfg.Imports.StreamPollInterval, cfg.Imports.StreamTimeout, logger)

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  cfg.Imports.MaxFileSize,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, importService, watcher, logger)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
