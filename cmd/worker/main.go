// Package main provides the import worker entry point. The worker consumes
// queued import jobs and executes them against the primary store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bulk-importer/internal/config"
	"github.com/bulk-importer/internal/imports"
	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/metrics"
	"github.com/bulk-importer/internal/notify"
	"github.com/bulk-importer/internal/storage"
	"github.com/bulk-importer/internal/worker"
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
	logger.Info("Import worker starting...")

	// Initialize storage connections
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

	// Initialize repositories
	jobRepo := storage.NewImportJobRepository(postgres)
	errorRepo := storage.NewImportErrorRepository(postgres)
	refRepo := storage.NewReferenceRepository(postgres)
	entityRepo := storage.NewEntityRepository(postgres)
	queue := storage.NewRedisQueue(redis)

	notifier := notify.NewLogNotifier(logger)

	runner := imports.NewRunner(jobRepo, errorRepo, blobs, entityRepo,
		refRepo, notifier, recorder, cfg.Imports, logger)

	importWorker, err := worker.NewImportWorker(&worker.ImportWorkerConfig{
		Queue:  queue,
		Runner: runner,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create import worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := importWorker.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start import worker")
	}

	logger.Info("Import worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down import worker...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := importWorker.Stop(stopCtx); err != nil {
		logger.WithError(err).Fatal("Import worker forced to shutdown")
	}

	logger.Info("Import worker exited")
}
