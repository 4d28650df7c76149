// Package metrics provides Prometheus metrics for the jamal scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Detection pipeline
	detectionsSubmitted prometheus.Counter
	detectionsDuplicate prometheus.Counter
	detectionsFailed    *prometheus.CounterVec
	detectionLatency    prometheus.Histogram
	evaluationsRecorded *prometheus.CounterVec
	leaderboardUpdates  prometheus.Counter

	// Engine
	compatibilityComputed prometheus.Counter
	queryLatency          *prometheus.HistogramVec

	// Operational health
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge
	camelsRanked  prometheus.Gauge
	storeLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// default registerer unless WithPrometheusRegistry says otherwise.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jamal",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		})
	}
	histVec := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
			Buckets: m.histogramBuckets,
		}, labels)
	}

	m.detectionsSubmitted = counter("detections_submitted_total", "Detection jobs accepted onto the queue")
	m.detectionsDuplicate = counter("detections_duplicate_total", "Detection submissions rejected as duplicates")
	m.detectionsFailed = counterVec("detections_failed_total", "Detection jobs that failed, by stage", "stage")
	m.detectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "detection_latency_milliseconds",
		Help:    "Latency of external detector calls in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.evaluationsRecorded = counterVec("evaluations_recorded_total", "Evaluations appended, by source", "source")
	m.leaderboardUpdates = counter("leaderboard_updates_total", "Leaderboard best-score improvements")

	m.compatibilityComputed = counter("compatibility_computed_total", "Compatibility scores computed")
	m.queryLatency = histVec("query_latency_milliseconds", "Filter and sort latency in milliseconds", "collection")

	m.queueSize = gauge("queue_size", "Detection jobs waiting in the queue")
	m.queueCapacity = gauge("queue_capacity", "Maximum detection jobs the queue holds")
	m.queueRejected = counterVec("queue_rejected_total", "Detection jobs the queue refused, by reason", "reason")
	m.workerCount = gauge("worker_count", "Detection workers running")
	m.camelsRanked = gauge("camels_ranked", "Camels present on the leaderboard")
	m.storeLatency = histVec("store_latency_milliseconds", "Repository operation latency in milliseconds", "operation")

	m.httpRequests = counterVec("http_requests_total", "HTTP requests served", "endpoint", "method", "status_code")
	m.httpRequestDuration = histVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorsByComponent = counterVec("errors_total", "Errors by component and kind", "component", "kind")
}

// RecordDetectionSubmitted counts a job accepted onto the queue.
func RecordDetectionSubmitted() { globalManager.detectionsSubmitted.Inc() }

// RecordDetectionDuplicate counts a duplicate submission.
func RecordDetectionDuplicate() { globalManager.detectionsDuplicate.Inc() }

// RecordDetectionFailed counts a failed job at the given stage.
func RecordDetectionFailed(stage string) { globalManager.detectionsFailed.WithLabelValues(stage).Inc() }

// RecordDetectionLatency observes one detector call.
func RecordDetectionLatency(latencyMs float64) { globalManager.detectionLatency.Observe(latencyMs) }

// RecordEvaluation counts an appended evaluation.
func RecordEvaluation(source string) { globalManager.evaluationsRecorded.WithLabelValues(source).Inc() }

// RecordLeaderboardUpdate counts a best-score improvement.
func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

// RecordCompatibilityComputed counts a compatibility evaluation.
func RecordCompatibilityComputed() { globalManager.compatibilityComputed.Inc() }

// RecordQueryLatency observes a filter/sort run over a collection.
func RecordQueryLatency(collection string, latencyMs float64) {
	globalManager.queryLatency.WithLabelValues(collection).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateCamelsRanked sets the leaderboard population.
func UpdateCamelsRanked(count int) { globalManager.camelsRanked.Set(float64(count)) }

// RecordStoreLatency observes a repository operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the registry the global collectors live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
