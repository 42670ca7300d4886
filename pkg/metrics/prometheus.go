// Package metrics provides Prometheus metrics for the streamwise service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Submissions and scoring
	submissions            *prometheus.CounterVec
	recommendations        *prometheus.CounterVec
	alternatives           *prometheus.CounterVec
	missingData            *prometheus.CounterVec
	recommendationDuration prometheus.Histogram

	// Recompute pipeline
	queueSize           prometheus.Gauge
	queueCapacity       prometheus.Gauge
	queueEnqueueErrors  *prometheus.CounterVec
	jobsCoalesced       prometheus.Counter
	workerCount         prometheus.Gauge
	workerLatency       prometheus.Histogram
	workerErrors        prometheus.Counter
	snapshotsPersisted  prometheus.Counter
	repositoryLatency   *prometheus.HistogramVec
	repositoryErrors    *prometheus.CounterVec
	repositoryRecords   *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry keeps the default Go collectors opt-in.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	customRegistry.MustRegister(collectors.NewGoCollector())
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "streamwise",
		subsystem:        "guidance",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.submissions = m.counterVec("submissions_total", "Marks and survey submissions by kind and outcome", "kind", "outcome")
	m.recommendations = m.counterVec("recommendations_total", "Recommendations computed by primary stream", "primary")
	m.alternatives = m.counterVec("alternatives_total", "Alternative streams surfaced by reason", "reason")
	m.missingData = m.counterVec("missing_data_total", "Recommendation requests short-circuited for missing inputs", "has_marks", "has_assessment")
	m.recommendationDuration = m.histogram("recommendation_duration_milliseconds", "Time to load inputs and compute a recommendation")

	m.queueSize = m.gauge("recompute_queue_size", "Pending recompute jobs")
	m.queueCapacity = m.gauge("recompute_queue_capacity", "Capacity of the recompute queue")
	m.queueEnqueueErrors = m.counterVec("recompute_enqueue_errors_total", "Recompute jobs rejected by the queue", "reason")
	m.jobsCoalesced = m.counter("recompute_coalesced_total", "Recompute jobs merged into an already pending job")
	m.workerCount = m.gauge("worker_count", "Recompute workers running")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Recompute job processing latency")
	m.workerErrors = m.counter("worker_errors_total", "Recompute jobs that failed")
	m.snapshotsPersisted = m.counter("snapshots_persisted_total", "Recommendation snapshots written")
	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Repository operation latency", "op")
	m.repositoryErrors = m.counterVec("repository_errors_total", "Repository operation failures", "op")
	m.repositoryRecords = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "repository_records",
		Help: "Rows held by the repository by kind", ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("http_errors_total", "HTTP error responses by route and error type", "endpoint", "method", "error_type")
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RecordSubmission counts a marks or survey submission outcome.
func RecordSubmission(kind, outcome string) {
	if globalManager.enabled {
		globalManager.submissions.WithLabelValues(kind, outcome).Inc()
	}
}

// RecordRecommendation counts a computed recommendation.
func RecordRecommendation(primary, alternativeReason string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendations.WithLabelValues(primary).Inc()
	if alternativeReason != "" {
		globalManager.alternatives.WithLabelValues(alternativeReason).Inc()
	}
	globalManager.recommendationDuration.Observe(durationMs)
}

// RecordMissingData counts a missing-data outcome.
func RecordMissingData(hasMarks, hasAssessment bool) {
	if globalManager.enabled {
		globalManager.missingData.WithLabelValues(boolLabel(hasMarks), boolLabel(hasAssessment)).Inc()
	}
}

// UpdateQueueSize sets the pending recompute job gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the recompute queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected recompute job.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordJobCoalesced counts a recompute job merged into a pending one.
func RecordJobCoalesced() {
	globalManager.jobsCoalesced.Inc()
}

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes one job's processing time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordSnapshotPersisted counts a written snapshot.
func RecordSnapshotPersisted() {
	globalManager.snapshotsPersisted.Inc()
}

// RecordRepositoryOp observes a repository call and counts failures.
func RecordRepositoryOp(op string, latencyMs float64, err error) {
	globalManager.repositoryLatency.WithLabelValues(op).Observe(latencyMs)
	if err != nil {
		globalManager.repositoryErrors.WithLabelValues(op).Inc()
	}
}

// UpdateRepositoryRecords sets the stored row gauge for kind.
func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
