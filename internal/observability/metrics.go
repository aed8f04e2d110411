package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsActive  prometheus.Gauge

	// Locator metrics
	LocatorRunsTotal     *prometheus.CounterVec
	LocatorRunDuration   *prometheus.HistogramVec
	LocatorElements      *prometheus.HistogramVec
	LocatorCacheRequests *prometheus.CounterVec
	HealingAttempts      *prometheus.CounterVec

	// Fetch metrics
	FetchRequestsTotal  *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	CircuitBreakerState *prometheus.GaugeVec

	// QA workflow metrics
	CasesGenerated  *prometheus.CounterVec
	SessionResults  *prometheus.CounterVec
	DeviceActions   *prometheus.CounterVec
	HoursLogged     prometheus.Counter
	ExportsUploaded prometheus.Counter

	// Temporal workflow metrics
	WorkflowsStarted   *prometheus.CounterVec
	WorkflowsCompleted *prometheus.CounterVec
	WorkflowDuration   *prometheus.HistogramVec
	ActivitiesExecuted *prometheus.CounterVec

	// System metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates a metrics instance on its own registry
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "zenit"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_active",
				Help:      "Number of active HTTP requests",
			},
		),

		// Locator metrics
		LocatorRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "locator_runs_total",
				Help:      "Total number of locator generation runs",
			},
			[]string{"mode", "framework", "status"},
		),
		LocatorRunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "locator_run_duration_seconds",
				Help:      "Locator generation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"mode"},
		),
		LocatorElements: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "locator_elements",
				Help:      "Number of elements located per run",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 300},
			},
			[]string{"mode"},
		),
		LocatorCacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "locator_cache_requests_total",
				Help:      "Locator cache lookups by result",
			},
			[]string{"result"}, // hit, miss, error
		),
		HealingAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "healing_attempts_total",
				Help:      "Total number of locator healing attempts",
			},
			[]string{"status"}, // exact, healed, no_match, error
		),

		// Fetch metrics
		FetchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_requests_total",
				Help:      "Total number of remote page fetches",
			},
			[]string{"fetcher", "status"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Remote page fetch duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"fetcher"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state per host (0 closed, 1 open, 2 half-open)",
			},
			[]string{"name"},
		),

		// QA workflow metrics
		CasesGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "test_cases_generated_total",
				Help:      "Total number of generated test cases",
			},
			[]string{"source"},
		),
		SessionResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_results_total",
				Help:      "Total number of recorded session case results",
			},
			[]string{"status"},
		),
		DeviceActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "device_actions_total",
				Help:      "Total number of device inventory actions",
			},
			[]string{"action"},
		),
		HoursLogged: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "work_hours_logged_total",
				Help:      "Total number of work hours logged",
			},
		),
		ExportsUploaded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_exports_total",
				Help:      "Total number of session exports written to storage",
			},
		),

		// Temporal workflow metrics
		WorkflowsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_started_total",
				Help:      "Total number of workflows started",
			},
			[]string{"workflow_type"},
		),
		WorkflowsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_completed_total",
				Help:      "Total number of workflows completed",
			},
			[]string{"workflow_type", "status"},
		),
		WorkflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_duration_seconds",
				Help:      "Workflow execution duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"workflow_type"},
		),
		ActivitiesExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activities_executed_total",
				Help:      "Total number of activities executed",
			},
			[]string{"activity_type", "status"},
		),

		// System metrics
		DBConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_active",
				Help:      "Number of active database connections",
			},
		),
		DBConnectionsIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_idle",
				Help:      "Number of idle database connections",
			},
		),
	}

	return m
}

// Registry exposes the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLocatorRun records one generation or scan run
func (m *Metrics) RecordLocatorRun(mode, framework, status string, elements int, duration time.Duration) {
	m.LocatorRunsTotal.WithLabelValues(mode, framework, status).Inc()
	m.LocatorRunDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if status == "ok" {
		m.LocatorElements.WithLabelValues(mode).Observe(float64(elements))
	}
}

// RecordLocatorCache records a cache lookup result
func (m *Metrics) RecordLocatorCache(result string) {
	m.LocatorCacheRequests.WithLabelValues(result).Inc()
}

// RecordHealing records a healing attempt
func (m *Metrics) RecordHealing(status string) {
	m.HealingAttempts.WithLabelValues(status).Inc()
}

// RecordFetch records a remote page fetch
func (m *Metrics) RecordFetch(fetcher, status string, duration time.Duration) {
	m.FetchRequestsTotal.WithLabelValues(fetcher, status).Inc()
	m.FetchDuration.WithLabelValues(fetcher).Observe(duration.Seconds())
}

// SetBreakerState publishes a circuit breaker state as 0, 1 or 2
func (m *Metrics) SetBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCasesGenerated counts generated test cases by source
func (m *Metrics) RecordCasesGenerated(source string, count int) {
	m.CasesGenerated.WithLabelValues(source).Add(float64(count))
}

// RecordSessionResult counts a recorded case result
func (m *Metrics) RecordSessionResult(status string) {
	m.SessionResults.WithLabelValues(status).Inc()
}

// RecordDeviceAction counts an inventory action such as checkout or audit
func (m *Metrics) RecordDeviceAction(action string) {
	m.DeviceActions.WithLabelValues(action).Inc()
}

// RecordHoursLogged adds logged work hours
func (m *Metrics) RecordHoursLogged(hours float64) {
	m.HoursLogged.Add(hours)
}

// RecordWorkflowStart records workflow start
func (m *Metrics) RecordWorkflowStart(workflowType string) {
	m.WorkflowsStarted.WithLabelValues(workflowType).Inc()
}

// RecordWorkflowComplete records workflow completion
func (m *Metrics) RecordWorkflowComplete(workflowType, status string, duration time.Duration) {
	m.WorkflowsCompleted.WithLabelValues(workflowType, status).Inc()
	m.WorkflowDuration.WithLabelValues(workflowType).Observe(duration.Seconds())
}

// RecordActivityExecution records activity execution
func (m *Metrics) RecordActivityExecution(activityType, status string) {
	m.ActivitiesExecuted.WithLabelValues(activityType, status).Inc()
}

// ObserveDBStats publishes connection pool gauges
func (m *Metrics) ObserveDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// HTTPMiddleware returns middleware for recording HTTP metrics.
// Paths are labelled with the matched chi route pattern.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsActive.Inc()
		defer m.HTTPRequestsActive.Dec()

		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		m.RecordHTTPRequest(r.Method, path, wrapped.statusCode, time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
