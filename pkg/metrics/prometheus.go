// Package metrics provides Prometheus metrics for the votesheet service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring model
	voteEdits     prometheus.Counter
	voteCoercions *prometheus.CounterVec
	resets        prometheus.Counter
	totalVotes    prometheus.Gauge
	topScore      prometheus.Gauge
	revision      prometheus.Gauge

	// Validation rules
	categoryUsed        *prometheus.GaugeVec
	categoryUtilization *prometheus.GaugeVec
	categoryOverLimit   *prometheus.GaugeVec

	// Snapshot publishing
	snapshotRebuildDuration prometheus.Histogram

	// Export
	exports *prometheus.CounterVec

	// Change feed
	feedSubscribers prometheus.Gauge
	feedPublished   prometheus.Counter
	feedDropped     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "votesheet",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.voteEdits = m.counter("vote_edits_total", "Total number of accepted vote edits")
	m.voteCoercions = m.counterVec("vote_coercions_total", "Vote inputs coerced before storing, by reason", "reason")
	m.resets = m.counter("resets_total", "Total number of sheet resets")
	m.totalVotes = m.gauge("total_votes", "Sum of every cell in the vote matrix")
	m.topScore = m.gauge("top_score", "Highest weighted score on the sheet")
	m.revision = m.gauge("revision", "Current sheet revision")

	m.categoryUsed = m.gaugeVec("category_used_votes", "Votes used per category", "category")
	m.categoryUtilization = m.gaugeVec("category_utilization_percent", "Category utilization against its ceiling", "category")
	m.categoryOverLimit = m.gaugeVec("category_over_limit", "1 when the category exceeds its ceiling", "category")

	m.snapshotRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_rebuild_duration_milliseconds",
		Help:        "Time spent recomputing derived values after a mutation",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.exports = m.counterVec("exports_total", "CSV exports by result", "result")

	m.feedSubscribers = m.gauge("feed_subscribers", "Active change feed subscribers")
	m.feedPublished = m.counter("feed_published_total", "Change notifications published")
	m.feedDropped = m.counter("feed_dropped_total", "Change notifications dropped for slow subscribers")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordVoteEdit counts an accepted edit.
func RecordVoteEdit() {
	globalManager.voteEdits.Inc()
}

// RecordVoteCoercion counts an input that was coerced, e.g. "negative" or "non_numeric".
func RecordVoteCoercion(reason string) {
	globalManager.voteCoercions.WithLabelValues(reason).Inc()
}

// RecordReset counts a sheet reset.
func RecordReset() {
	globalManager.resets.Inc()
}

// UpdateTotalVotes sets the matrix sum.
func UpdateTotalVotes(total int) {
	globalManager.totalVotes.Set(float64(total))
}

// UpdateTopScore sets the best weighted score.
func UpdateTopScore(score float64) {
	globalManager.topScore.Set(score)
}

// UpdateRevision sets the sheet revision.
func UpdateRevision(rev uint64) {
	globalManager.revision.Set(float64(rev))
}

// UpdateCategoryUsage sets the usage gauges for one category. A zero ceiling
// with votes exports +Inf utilization.
func UpdateCategoryUsage(category string, used int, utilization float64, overLimit bool) {
	globalManager.categoryUsed.WithLabelValues(category).Set(float64(used))
	globalManager.categoryUtilization.WithLabelValues(category).Set(utilization)
	over := 0.0
	if overLimit {
		over = 1
	}
	globalManager.categoryOverLimit.WithLabelValues(category).Set(over)
}

// RecordSnapshotRebuildDuration records derived-value recomputation time.
func RecordSnapshotRebuildDuration(ms float64) {
	globalManager.snapshotRebuildDuration.Observe(ms)
}

// RecordExport counts an export attempt by result ("ok" or "error").
func RecordExport(result string) {
	globalManager.exports.WithLabelValues(result).Inc()
}

// UpdateFeedSubscribers sets the subscriber count.
func UpdateFeedSubscribers(n int) {
	globalManager.feedSubscribers.Set(float64(n))
}

// RecordFeedPublished counts a published notification.
func RecordFeedPublished() {
	globalManager.feedPublished.Inc()
}

// RecordFeedDropped counts a notification a subscriber missed.
func RecordFeedDropped() {
	globalManager.feedDropped.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry served at /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
