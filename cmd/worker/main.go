package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	prdactivity "github.com/zenit-qa/zenit/internal/activities/prd"
	"github.com/zenit-qa/zenit/internal/behavior"
	"github.com/zenit-qa/zenit/internal/config"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/internal/repository/postgres"
	"github.com/zenit-qa/zenit/internal/services/prd"
	"github.com/zenit-qa/zenit/internal/storage"
	"github.com/zenit-qa/zenit/internal/temporal"
	"github.com/zenit-qa/zenit/internal/workflows"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(string(cfg.Env))
	defer logger.Sync()

	logger.Info("Starting Zenit Worker",
		zap.String("version", cfg.App.Version),
		zap.String("environment", string(cfg.Env)),
		zap.String("temporal_address", cfg.Temporal.Addr()),
		zap.String("namespace", cfg.Temporal.Namespace),
		zap.String("task_queue", cfg.Temporal.TaskQueue),
	)

	// Create Temporal client
	c, err := temporal.NewClient(cfg.Temporal, logger)
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	logger.Info("Connected to Temporal server")

	// Extraction saves cases, so the worker needs the database
	db, err := postgres.New(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Uploaded documents are read back from object storage
	store, err := storage.NewMinIOClient(cfg.Storage)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = store.Health(ctx)
		cancel()
	}
	var documents prd.DocumentStore
	if err != nil {
		logger.Warn("Object storage unavailable, only inline documents can be extracted", zap.Error(err))
	} else {
		documents = store
	}

	metrics := observability.NewMetrics(cfg.App.Name + "_worker")
	repos := postgres.NewRepositories(db.DB)
	extractor := prd.NewService(documents, repos.TestCases, behavior.NewEngine(nil), metrics, logger)

	// Create worker
	w := worker.New(c, c.TaskQueue(), worker.Options{
		MaxConcurrentActivityExecutionSize:     cfg.Temporal.WorkerCount,
		MaxConcurrentWorkflowTaskExecutionSize: cfg.Temporal.WorkerCount,
	})

	workflows.Register(w)
	prdactivity.RegisterActivities(w, prdactivity.NewActivity(extractor, repos.TestCases, metrics, logger))

	logger.Info("Registered workflows and activities",
		zap.Int("activity_count", 3),
		zap.Int("workflow_count", 1),
	)

	// Start worker in goroutine
	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- w.Run(worker.InterruptCh())
	}()

	logger.Info("Worker started successfully",
		zap.String("task_queue", c.TaskQueue()),
	)

	// Wait for shutdown signal or worker error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-workerErrors:
		if err != nil {
			logger.Fatal("Worker error", zap.Error(err))
		}

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
		w.Stop()
		logger.Info("Worker stopped gracefully")
	}
}

func initLogger(env string) *zap.Logger {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
