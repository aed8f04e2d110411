package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zenit-qa/zenit/internal/api"
	"github.com/zenit-qa/zenit/internal/behavior"
	"github.com/zenit-qa/zenit/internal/config"
	"github.com/zenit-qa/zenit/internal/fetch"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/internal/repository/postgres"
	rediscache "github.com/zenit-qa/zenit/internal/repository/redis"
	"github.com/zenit-qa/zenit/internal/services/locators"
	"github.com/zenit-qa/zenit/internal/services/prd"
	"github.com/zenit-qa/zenit/internal/services/reporting"
	"github.com/zenit-qa/zenit/internal/storage"
	"github.com/zenit-qa/zenit/internal/temporal"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(string(cfg.Env), cfg.GetLogLevel())
	defer logger.Sync()

	logger.Info("Starting Zenit API",
		zap.String("version", cfg.App.Version),
		zap.String("environment", string(cfg.Env)),
	)

	if cfg.IsProduction() && !cfg.Security.TLSEnabled {
		logger.Warn("TLS disabled, expecting a TLS-terminating proxy in front")
	}

	metrics := observability.NewMetrics(cfg.App.Name)
	checks := make(map[string]api.HealthChecker)

	// Connect to PostgreSQL
	db, err := postgres.New(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	checks["database"] = db
	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
	)

	// Connect to Redis (optional)
	var cache *rediscache.Cache
	cache, err = rediscache.New(cfg.Redis)
	if err != nil {
		logger.Warn("Failed to connect to Redis, caching and rate limiting disabled", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
		checks["redis"] = cache
		logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// Connect to object storage (optional)
	var store *storage.MinIOClient
	store, err = storage.NewMinIOClient(cfg.Storage)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = store.EnsureBucket(ctx)
		cancel()
	}
	if err != nil {
		logger.Warn("Failed to set up object storage, uploads and exports disabled", zap.Error(err))
		store = nil
	} else {
		checks["storage"] = store
		logger.Info("Connected to object storage",
			zap.String("endpoint", cfg.Storage.Endpoint),
			zap.String("bucket", cfg.Storage.Bucket),
		)
	}

	// Connect to Temporal (optional but recommended)
	temporalClient, err := temporal.NewClient(cfg.Temporal, logger)
	if err != nil {
		logger.Warn("Failed to connect to Temporal, async extraction disabled", zap.Error(err))
		temporalClient = nil
	} else {
		defer temporalClient.Close()
		checks["temporal"] = temporalClient
		logger.Info("Connected to Temporal",
			zap.String("address", cfg.Temporal.Addr()),
			zap.String("namespace", cfg.Temporal.Namespace),
		)
	}

	// Page fetchers
	static := fetch.NewStaticFetcher(fetch.Config{
		Timeout:        cfg.Fetch.Timeout,
		MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
		RequestsPerSec: cfg.Fetch.RequestsPerSec,
		Burst:          cfg.Fetch.Burst,
		UserAgent:      cfg.Fetch.UserAgent,
	}, logger)
	var rendered *fetch.RenderedFetcher
	if cfg.Fetch.Rendered {
		rendered, err = fetch.NewRenderedFetcher(cfg.Fetch.RenderTimeout, cfg.Fetch.UserAgent, logger)
		if err != nil {
			logger.Warn("Failed to start browser, rendered scraping disabled", zap.Error(err))
			rendered = nil
		} else {
			defer rendered.Close()
		}
	}

	// Initialize repositories and services
	repos := postgres.NewRepositories(db.DB)

	deps := locators.Deps{Static: static, Metrics: metrics}
	if cache != nil {
		deps.Cache = cache
	}
	if rendered != nil {
		deps.Rendered = rendered
	}
	locatorService := locators.NewService(locators.Config{
		MaxElements:      cfg.Locator.MaxElements,
		MaxInputBytes:    cfg.Locator.MaxInputBytes,
		CacheTTL:         cfg.Locator.CacheTTL,
		EnableCaching:    cfg.Locator.EnableCaching,
		HealingThreshold: cfg.Locator.HealingThreshold,
	}, deps, logger)

	engine := behavior.NewEngine(nil)

	var documents prd.DocumentStore
	var exports reporting.ExportStore
	if store != nil {
		documents, exports = store, store
	}
	prdService := prd.NewService(documents, repos.TestCases, engine, metrics, logger)

	reports, err := reporting.NewGenerator(exports, metrics, logger)
	if err != nil {
		logger.Fatal("Failed to create report generator", zap.Error(err))
	}

	routerCfg := api.RouterConfig{
		Sessions:  repos.Sessions,
		TestCases: repos.TestCases,
		Devices:   repos.Devices,
		WorkLogs:  repos.WorkLogs,
		Locators:  locatorService,
		PRD:       prdService,
		Reports:   reports,
		Engine:    engine,
		Checks:    checks,
		Metrics:   metrics,
		Security:  cfg.Security,
		RateLimit: cfg.RateLimits,
		Service:   cfg.App.Name + "-api",
		Logger:    logger,
	}
	if cache != nil {
		routerCfg.Limiter = cache
	}
	if temporalClient != nil {
		routerCfg.Extractions = temporalClient
	}

	// Create router
	router := api.NewRouter(routerCfg)

	// Create HTTP server
	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      http.MaxBytesHandler(router, cfg.Server.MaxRequestSize),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Publish pool stats alongside request metrics
	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-statsCtx.Done():
				return
			case <-ticker.C:
				metrics.ObserveDBStats(db.Stats())
			}
		}
	}()

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", zap.String("addr", addr))
		if cfg.Security.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Security.TLSCertFile, cfg.Security.TLSKeyFile)
			return
		}
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server error", zap.Error(err))

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed, forcing close", zap.Error(err))
			server.Close()
		}

		logger.Info("Server stopped gracefully")
	}
}

// initLogger creates a configured zap logger
func initLogger(env, level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
