package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets   = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	renderDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
	scoreBuckets          = []float64{0, 50, 70, 80, 90, 95, 100}
)

// Metrics holds all Prometheus metric instruments for the layout service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Validation metrics
	ValidationRunsTotal  *prometheus.CounterVec
	ValidationIssues     *prometheus.CounterVec
	ValidationScore      prometheus.Histogram
	SchemasLoaded        prometheus.Gauge
	InvalidSchemasLoaded prometheus.Gauge

	// Render metrics
	RenderTotal          *prometheus.CounterVec
	RenderDuration       *prometheus.HistogramVec
	RenderCacheHitsTotal prometheus.Counter
	RenderCacheMisses    prometheus.Counter

	// Provider metrics
	LayoutSwitchesTotal *prometheus.CounterVec
	ProviderState       *prometheus.GaugeVec

	// System metrics
	LayoutReloadTotal *prometheus.CounterVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		// Validation
		ValidationRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_validation_runs_total",
			Help: "Total number of layout validation runs.",
		}, []string{"outcome"}),
		ValidationIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_validation_issues_total",
			Help: "Total validation findings by severity.",
		}, []string{"severity"}),
		ValidationScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "slate_validation_score",
			Help:    "Distribution of layout validation scores.",
			Buckets: scoreBuckets,
		}),
		SchemasLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slate_schemas_loaded",
			Help: "Number of layout schemas currently in the registry.",
		}),
		InvalidSchemasLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slate_schemas_invalid",
			Help: "Number of layout source files rejected at load time.",
		}),

		// Render
		RenderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_render_total",
			Help: "Total number of layout renders.",
		}, []string{"layout_id", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slate_render_duration_seconds",
			Help:    "Layout render duration in seconds.",
			Buckets: renderDurationBuckets,
		}, []string{"layout_id"}),
		RenderCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slate_render_cache_hits_total",
			Help: "Total render cache hits.",
		}),
		RenderCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slate_render_cache_misses_total",
			Help: "Total render cache misses.",
		}),

		// Provider
		LayoutSwitchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_layout_switches_total",
			Help: "Total number of layout switches.",
		}, []string{"entity_type", "status"}),
		ProviderState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slate_provider_state",
			Help: "Layout provider state (0=uninitialized, 1=loading, 2=ready, 3=error).",
		}, []string{"entity_type"}),

		// System
		LayoutReloadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_layout_reload_total",
			Help: "Total layout directory reloads.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		// Validation
		m.ValidationRunsTotal,
		m.ValidationIssues,
		m.ValidationScore,
		m.SchemasLoaded,
		m.InvalidSchemasLoaded,
		// Render
		m.RenderTotal,
		m.RenderDuration,
		m.RenderCacheHitsTotal,
		m.RenderCacheMisses,
		// Provider
		m.LayoutSwitchesTotal,
		m.ProviderState,
		// System
		m.LayoutReloadTotal,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// RecordValidation records one validation run.
func (m *Metrics) RecordValidation(valid bool, errorCount, warningCount, score int) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.ValidationRunsTotal.WithLabelValues(outcome).Inc()
	m.ValidationIssues.WithLabelValues("error").Add(float64(errorCount))
	m.ValidationIssues.WithLabelValues("warning").Add(float64(warningCount))
	m.ValidationScore.Observe(float64(score))
}

// SetSchemasLoaded sets the registry gauges.
func (m *Metrics) SetSchemasLoaded(valid, invalid int) {
	m.SchemasLoaded.Set(float64(valid))
	m.InvalidSchemasLoaded.Set(float64(invalid))
}

// ObserveRender implements the renderer's Metrics contract.
func (m *Metrics) ObserveRender(layoutID string, duration time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.RenderTotal.WithLabelValues(layoutID, outcome).Inc()
	m.RenderDuration.WithLabelValues(layoutID).Observe(duration.Seconds())
}

// ObserveCache implements the renderer's Metrics contract.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.RenderCacheHitsTotal.Inc()
	} else {
		m.RenderCacheMisses.Inc()
	}
}

// RecordLayoutSwitch records a layout switch attempt.
func (m *Metrics) RecordLayoutSwitch(entityType, status string) {
	m.LayoutSwitchesTotal.WithLabelValues(entityType, status).Inc()
}

// SetProviderState sets the provider state gauge.
// State: 0=uninitialized, 1=loading, 2=ready, 3=error.
func (m *Metrics) SetProviderState(entityType string, state float64) {
	m.ProviderState.WithLabelValues(entityType).Set(state)
}

// RecordLayoutReload records a layout directory reload.
func (m *Metrics) RecordLayoutReload(status string) {
	m.LayoutReloadTotal.WithLabelValues(status).Inc()
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}
