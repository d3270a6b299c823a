// Package metrics provides Prometheus metrics for the Nebulon tier service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager manages all Prometheus metrics for the tier service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ranking metrics
	rankingsComputed prometheus.Counter
	entriesRanked    prometheus.Counter
	rankingLatency   prometheus.Histogram
	rankingsRejected *prometheus.CounterVec
	tierAssignments  *prometheus.CounterVec

	// Dispatch metrics
	dispatchEnqueued prometheus.Counter
	dispatchDropped  *prometheus.CounterVec
	ledgerUpdates    *prometheus.CounterVec
	ledgerLatency    prometheus.Histogram

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "nebulon",
		subsystem:        "tiers",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.rankingsComputed = auto.NewCounter(m.counterOpts("rankings_computed_total",
		"Total number of ranking calls answered"))
	m.entriesRanked = auto.NewCounter(m.counterOpts("entries_ranked_total",
		"Total number of agent entries ranked across all calls"))
	m.rankingLatency = auto.NewHistogram(m.histogramOpts("ranking_latency_milliseconds",
		"Ranking computation latency in milliseconds", m.histogramBuckets))
	m.rankingsRejected = auto.NewCounterVec(m.counterOpts("rankings_rejected_total",
		"Ranking requests rejected before reaching the engine"), []string{"reason"})
	m.tierAssignments = auto.NewCounterVec(m.counterOpts("tier_assignments_total",
		"Number of entries assigned to each tier"), []string{"tier_id"})

	m.dispatchEnqueued = auto.NewCounter(m.counterOpts("dispatch_enqueued_total",
		"Ledger updates handed to the dispatch queue"))
	m.dispatchDropped = auto.NewCounterVec(m.counterOpts("dispatch_dropped_total",
		"Ledger updates dropped before reaching the queue"), []string{"reason"})
	m.ledgerUpdates = auto.NewCounterVec(m.counterOpts("ledger_updates_total",
		"Ledger update calls by driver and outcome"), []string{"driver", "outcome"})
	m.ledgerLatency = auto.NewHistogram(m.histogramOpts("ledger_update_latency_milliseconds",
		"Ledger update call latency in milliseconds", m.histogramBuckets))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Current number of pending ledger updates"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum number of pending ledger updates"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Dispatch queue utilization (size / capacity)"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count",
		"Number of dispatch workers running"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Time spent by a worker on a single ledger update", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Ledger updates that failed inside a worker"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// active returns the global manager when metrics are enabled.
func active() (*Manager, bool) {
	if globalManager == nil || !globalManager.enabled {
		return nil, false
	}
	return globalManager, true
}

// RecordRanking records a completed ranking call of n entries.
func RecordRanking(n int, latencyMs float64) {
	if m, ok := active(); ok {
		m.rankingsComputed.Inc()
		m.entriesRanked.Add(float64(n))
		m.rankingLatency.Observe(latencyMs)
	}
}

// RecordRankingRejected counts a request rejected during validation.
func RecordRankingRejected(reason string) {
	if m, ok := active(); ok {
		m.rankingsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordTierAssignment counts one entry landing in tierID.
func RecordTierAssignment(tierID int) {
	if m, ok := active(); ok {
		m.tierAssignments.WithLabelValues(strconv.Itoa(tierID)).Inc()
	}
}

// RecordDispatchEnqueued counts a ledger update accepted by the queue.
func RecordDispatchEnqueued() {
	if m, ok := active(); ok {
		m.dispatchEnqueued.Inc()
	}
}

// RecordDispatchDropped counts a ledger update that never reached the queue.
func RecordDispatchDropped(reason string) {
	if m, ok := active(); ok {
		m.dispatchDropped.WithLabelValues(reason).Inc()
	}
}

// RecordLedgerUpdate records the outcome and latency of one ledger call.
func RecordLedgerUpdate(driver, outcome string, latencyMs float64) {
	if m, ok := active(); ok {
		m.ledgerUpdates.WithLabelValues(driver, outcome).Inc()
		m.ledgerLatency.Observe(latencyMs)
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if m, ok := active(); ok {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m, ok := active(); ok {
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if m, ok := active(); ok {
		m.queueUtilization.Set(utilization)
	}
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	if m, ok := active(); ok {
		m.workerActiveCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency observes a worker's per-update latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m, ok := active(); ok {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if m, ok := active(); ok {
		m.workerErrors.Inc()
	}
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m, ok := active(); ok {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m, ok := active(); ok {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent increments the per-component error counter.
func RecordErrorByComponent(component, errorType string) {
	if m, ok := active(); ok {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType increments the per-type error counter.
func RecordErrorByType(errorType, severity string) {
	if m, ok := active(); ok {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint increments the per-endpoint error counter.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m, ok := active(); ok {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m, ok := active(); ok {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if m, ok := active(); ok {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m, ok := active(); ok {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
