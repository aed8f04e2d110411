package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/api/handlers"
	"github.com/zenit-qa/zenit/internal/api/middleware"
	"github.com/zenit-qa/zenit/internal/behavior"
	"github.com/zenit-qa/zenit/internal/config"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/internal/services/locators"
	"github.com/zenit-qa/zenit/internal/services/prd"
	"github.com/zenit-qa/zenit/internal/services/reporting"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// HealthChecker is a dependency probed by /ready
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router holds the HTTP router and its dependencies
type Router struct {
	chi.Router
	logger *zap.Logger
}

// RouterConfig contains configuration for the router
type RouterConfig struct {
	Sessions  domain.SessionRepository
	TestCases domain.TestCaseRepository
	Devices   domain.DeviceRepository
	WorkLogs  domain.WorkLogRepository

	Locators    *locators.Service
	PRD         *prd.Service
	Reports     *reporting.Generator
	Engine      *behavior.Engine
	Extractions handlers.ExtractionStarter

	// Limiter backs per-caller rate limiting; nil disables it
	Limiter middleware.Limiter
	// Checks are probed by /ready, keyed by dependency name
	Checks map[string]HealthChecker

	Metrics   *observability.Metrics
	Security  config.SecurityConfig
	RateLimit config.RateLimitConfig
	Service   string
	Logger    *zap.Logger
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewMetrics("")
	}
	if cfg.Engine == nil {
		cfg.Engine = behavior.NewEngine(nil)
	}
	if cfg.Service == "" {
		cfg.Service = "zenit-api"
	}

	r := chi.NewRouter()

	// Base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Handler)
	r.Use(cfg.Metrics.HTTPMiddleware)
	r.Use(chimw.Timeout(60 * time.Second))

	if cfg.Security.CORSEnabled {
		origins := cfg.Security.CORSAllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", cfg.Security.UserIDHeader, cfg.Security.UserNameHeader},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Use(middleware.NewIdentityMiddleware(cfg.Security.UserIDHeader, cfg.Security.UserNameHeader).Handler)

	if cfg.Limiter != nil && cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMin > 0 {
		r.Use(middleware.NewRateLimitMiddleware(cfg.Limiter, cfg.RateLimit.RequestsPerMin, true, cfg.Logger).Handler)
	}

	// Health check endpoints
	r.Get("/health", healthHandler(cfg.Service))
	r.Get("/ready", readyHandler(cfg.Checks))
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	locatorHandler := handlers.NewLocatorHandler(cfg.Locators, cfg.Logger)
	behaviorHandler := handlers.NewBehaviorHandler(cfg.Engine, cfg.Metrics)
	prdHandler := handlers.NewPRDHandler(cfg.PRD, cfg.Extractions, cfg.Logger)
	clevertapHandler := handlers.NewCleverTapHandler(cfg.Logger)
	sessionHandler := handlers.NewSessionHandler(cfg.Sessions, cfg.TestCases, cfg.Reports, cfg.Metrics, cfg.Logger)
	testCaseHandler := handlers.NewTestCaseHandler(cfg.TestCases, cfg.Logger)
	deviceHandler := handlers.NewDeviceHandler(cfg.Devices, cfg.Metrics, cfg.Logger)
	workLogHandler := handlers.NewWorkLogHandler(cfg.WorkLogs, cfg.Metrics, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/locators", func(r chi.Router) {
			r.Post("/generate", locatorHandler.Generate)
			r.Post("/scrape", locatorHandler.Scrape)
			r.Post("/heal", locatorHandler.Heal)
		})

		r.Post("/behavior/cases", behaviorHandler.Cases)

		r.Route("/prd", func(r chi.Router) {
			r.Post("/extract", prdHandler.Extract)
			r.Get("/jobs/{workflowID}", prdHandler.Job)
		})

		r.Route("/clevertap", func(r chi.Router) {
			r.Post("/params", clevertapHandler.Params)
			r.Get("/events", clevertapHandler.Catalog)
			r.Post("/sheet", clevertapHandler.Sheet)
		})

		// Sessions are private to the tester who ran them
		r.Route("/sessions", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)
			r.Get("/export", sessionHandler.ExportAll)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Put("/cases/{caseID}", sessionHandler.UpdateCase)
				r.Post("/complete", sessionHandler.Complete)
				r.Post("/abort", sessionHandler.Abort)
				r.Get("/export", sessionHandler.Export)
				r.Get("/report", sessionHandler.Report)
			})
		})

		r.Route("/repository", func(r chi.Router) {
			r.Get("/cases", testCaseHandler.List)
			r.Post("/cases", testCaseHandler.Create)
			r.Get("/cases/{caseID}", testCaseHandler.Get)
			r.Put("/cases/{caseID}", testCaseHandler.Update)
			r.Delete("/cases/{caseID}", testCaseHandler.Delete)
			r.Post("/automation-tags", testCaseHandler.AutomationTags)
		})

		r.Route("/keepr", func(r chi.Router) {
			r.Get("/devices", deviceHandler.List)
			r.Post("/devices", deviceHandler.Create)
			r.Post("/devices/{deviceID}/checkout", deviceHandler.CheckOut)
			r.Post("/devices/{deviceID}/checkin", deviceHandler.CheckIn)
			r.Post("/devices/{deviceID}/audit", deviceHandler.Audit)
			r.Get("/audit-logs", deviceHandler.AuditLogs)
			r.Get("/stats", deviceHandler.Stats)
			r.Get("/report", deviceHandler.Report)
		})

		r.Route("/wrklog", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/entries", workLogHandler.List)
			r.Post("/entries", workLogHandler.Create)
			r.Get("/projects", workLogHandler.Projects)
		})
	})

	return &Router{
		Router: r,
		logger: cfg.Logger,
	}
}

// healthHandler returns basic health status
func healthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": service,
		})
	}
}

// readyHandler checks if all dependencies are ready
func readyHandler(checks map[string]HealthChecker) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := make(map[string]string, len(names))
		allHealthy := true
		for _, name := range names {
			if err := checks[name].Health(ctx); err != nil {
				results[name] = "unhealthy: " + err.Error()
				allHealthy = false
				continue
			}
			results[name] = "healthy"
		}

		status := http.StatusOK
		statusText := "ready"
		if !allHealthy {
			status = http.StatusServiceUnavailable
			statusText = "not ready"
		}

		httputil.JSON(w, status, map[string]any{
			"status": statusText,
			"checks": results,
		})
	}
}
