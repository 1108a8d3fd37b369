// Package metrics provides Prometheus metrics for the talentflow pipeline service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets covers sub-millisecond cache hits up to webhook
// calls near the sync timeout.
var defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Use-case outcomes
	useCases *prometheus.CounterVec

	// Cache layer
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheLoadLatency   prometheus.Histogram
	cachePurges        *prometheus.CounterVec
	cacheBackendErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Spreadsheet sync pipeline
	syncQueueSize     prometheus.Gauge
	syncQueueCapacity prometheus.Gauge
	syncEnqueued      prometheus.Counter
	syncDropped       *prometheus.CounterVec
	syncResults       *prometheus.CounterVec
	syncLatency       prometheus.Histogram
	syncWorkers       prometheus.Gauge

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "talentflow",
		subsystem:      "pipeline",
		latencyBuckets: defaultLatencyBuckets,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.useCases = m.counterVec("usecase_total", "Orchestrator use-case invocations by outcome", "usecase", "outcome")

	m.cacheHits = m.counterVec("cache_hits_total", "Cache reads served from a live entry", "view")
	m.cacheMisses = m.counterVec("cache_misses_total", "Cache reads that invoked the loader", "view")
	m.cacheLoadLatency = m.histogram("cache_load_latency_ms", "Loader latency on cache miss in milliseconds")
	m.cachePurges = m.counterVec("cache_purges_total", "Tag purges by tag kind", "tag")
	m.cacheBackendErrors = m.counterVec("cache_backend_errors_total", "Cache backend failures degraded to a miss", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_ms",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.syncQueueSize = m.gauge("sync_queue_size", "Pending spreadsheet sync requests")
	m.syncQueueCapacity = m.gauge("sync_queue_capacity", "Capacity of the spreadsheet sync queue")
	m.syncEnqueued = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sync_enqueued_total",
		Help:        "Spreadsheet sync requests accepted by the queue",
		ConstLabels: m.constLabels,
	})
	m.syncDropped = m.counterVec("sync_dropped_total", "Spreadsheet sync requests not enqueued", "reason")
	m.syncResults = m.counterVec("sync_results_total", "Spreadsheet sync attempts by resulting status", "status")
	m.syncLatency = m.histogram("sync_latency_ms", "Spreadsheet sync latency in milliseconds")
	m.syncWorkers = m.gauge("sync_workers", "Running spreadsheet sync workers")

	m.errorRateByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordUseCase counts one orchestrator use-case outcome ("ok" or an error kind).
func RecordUseCase(usecase, outcome string) {
	globalManager.useCases.WithLabelValues(usecase, outcome).Inc()
}

// RecordCacheHit counts a cache hit for a view.
func RecordCacheHit(view string) {
	globalManager.cacheHits.WithLabelValues(view).Inc()
}

// RecordCacheMiss counts a cache miss for a view.
func RecordCacheMiss(view string) {
	globalManager.cacheMisses.WithLabelValues(view).Inc()
}

// RecordCacheLoadLatency records loader latency in milliseconds.
func RecordCacheLoadLatency(latencyMs float64) {
	globalManager.cacheLoadLatency.Observe(latencyMs)
}

// RecordCachePurge counts a purge of a tag kind.
func RecordCachePurge(tagKind string) {
	globalManager.cachePurges.WithLabelValues(tagKind).Inc()
}

// RecordCacheBackendError counts a backend failure for an operation.
func RecordCacheBackendError(op string) {
	globalManager.cacheBackendErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSyncQueueSize sets the current sync queue length.
func UpdateSyncQueueSize(size int) {
	globalManager.syncQueueSize.Set(float64(size))
}

// UpdateSyncQueueCapacity sets the sync queue capacity.
func UpdateSyncQueueCapacity(capacity int) {
	globalManager.syncQueueCapacity.Set(float64(capacity))
}

// RecordSyncEnqueued counts an accepted sync request.
func RecordSyncEnqueued() {
	globalManager.syncEnqueued.Inc()
}

// RecordSyncDropped counts a sync request that was not enqueued.
func RecordSyncDropped(reason string) {
	globalManager.syncDropped.WithLabelValues(reason).Inc()
}

// RecordSyncResult counts a finished sync attempt by status.
func RecordSyncResult(status string) {
	globalManager.syncResults.WithLabelValues(status).Inc()
}

// RecordSyncLatency records sync latency in milliseconds.
func RecordSyncLatency(latencyMs float64) {
	globalManager.syncLatency.Observe(latencyMs)
}

// UpdateSyncWorkerCount sets the number of running sync workers.
func UpdateSyncWorkerCount(count int) {
	globalManager.syncWorkers.Set(float64(count))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
