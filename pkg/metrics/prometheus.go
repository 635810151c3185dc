// Package metrics provides Prometheus metrics for the tagline inference service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tagline service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// HTTP Boundary Metrics - request volume and latency per endpoint
	requestCount   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec

	// Prediction Metrics - what the model is actually emitting
	predictionCount  *prometheus.CounterVec
	inferenceLatency prometheus.Histogram
	inferenceErrors  prometheus.Counter

	// Model Identity - which artifact this process serves
	modelInfo *prometheus.GaugeVec

	// Registry Metrics - startup-time version resolution
	registryQueries     prometheus.Counter
	registryQueryErrors prometheus.Counter

	// Boundary Error Metrics
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tagline",
		subsystem:        "app",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.requestCount = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "request_count_total",
			Help:      "Total number of requests to the app by method and endpoint",
		},
		[]string{"method", "endpoint"},
	)

	m.requestLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "request_latency_seconds",
			Help:      "Latency of requests in seconds by endpoint",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint"},
	)

	m.predictionCount = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "model",
			Name:      "prediction_count_total",
			Help:      "Count of predictions for each emitted label",
		},
		[]string{"prediction"},
	)

	m.inferenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "inference_latency_seconds",
		Help:      "End-to-end normalize/encode/predict latency in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.inferenceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "inference_errors_total",
		Help:      "Total number of failed inference calls",
	})

	m.modelInfo = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: "model",
			Name:      "info",
			Help:      "Identity of the served model version (always 1 when serving)",
		},
		[]string{"name", "version", "stage"},
	)

	m.registryQueries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "registry",
		Name:      "queries_total",
		Help:      "Total number of model registry queries",
	})

	m.registryQueryErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "registry",
		Name:      "query_errors_total",
		Help:      "Total number of failed model registry queries",
	})

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of error responses by endpoint and method",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordRequest increments the request counter for a method/endpoint pair.
func RecordRequest(method, endpoint string) {
	globalManager.requestCount.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestLatency records handler latency in seconds for an endpoint.
func RecordRequestLatency(endpoint string, seconds float64) {
	globalManager.requestLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordPrediction increments the prediction counter for an emitted label.
func RecordPrediction(label string) {
	globalManager.predictionCount.WithLabelValues(label).Inc()
}

// RecordInferenceLatency records end-to-end inference latency in seconds.
func RecordInferenceLatency(seconds float64) {
	globalManager.inferenceLatency.Observe(seconds)
}

// RecordInferenceError increments the failed inference counter.
func RecordInferenceError() {
	globalManager.inferenceErrors.Inc()
}

// SetModelInfo marks the identity of the model version being served.
func SetModelInfo(name, version, stage string) {
	globalManager.modelInfo.WithLabelValues(name, version, stage).Set(1)
}

// RecordRegistryQuery increments the registry query counter.
func RecordRegistryQuery() {
	globalManager.registryQueries.Inc()
}

// RecordRegistryQueryError increments the failed registry query counter.
func RecordRegistryQueryError() {
	globalManager.registryQueryErrors.Inc()
}

// RecordErrorByEndpoint records an error response with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
