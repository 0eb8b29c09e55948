// Package metrics provides Prometheus metrics for the survivor engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine metrics
	summariesComputed     prometheus.Counter
	recommendationsServed prometheus.Counter
	ratingUpdatesApplied  prometheus.Counter
	simulationRuns        prometheus.Counter
	simulationTrials      prometheus.Counter
	simulationDuration    prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Standings store metrics
	standingsTeams          prometheus.Gauge
	standingsUpdateDuration prometheus.Histogram
	standingsQueryDuration  prometheus.Histogram

	// Async simulation pipeline metrics
	queueDepth       prometheus.Gauge
	queueCapacity    prometheus.Gauge
	jobsEnqueued     prometheus.Counter
	jobsDequeued     prometheus.Counter
	jobsCompleted    prometheus.Counter
	jobsFailed       prometheus.Counter
	jobsDeduplicated prometheus.Counter
	activeWorkers    prometheus.Gauge

	// Error metrics by engine component and error kind
	engineErrors *prometheus.CounterVec
}

// Global metrics manager on a custom registry, keeping default Go collector
// noise out of the scrape.
var (
	globalManager  *Manager               //nolint:gochecknoglobals // singleton metrics manager
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "survivor",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.summariesComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "week_summaries_total",
		Help:      "Total number of weekly summaries computed",
	})
	m.recommendationsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendations_total",
		Help:      "Total number of pick recommendations served",
	})
	m.ratingUpdatesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_updates_total",
		Help:      "Total number of rating update passes applied",
	})
	m.simulationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_runs_total",
		Help:      "Total number of Monte Carlo simulation runs",
	})
	m.simulationTrials = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_trials_total",
		Help:      "Total number of Monte Carlo trials executed",
	})
	m.simulationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_duration_seconds",
		Help:      "Histogram of wall-clock simulation run duration",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration by endpoint and method",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	m.standingsTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_teams",
		Help:      "Number of teams tracked in the standings store",
	})
	m.standingsUpdateDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_update_duration_milliseconds",
		Help:      "Histogram of standings upsert latency",
		Buckets:   m.histogramBuckets,
	})
	m.standingsQueryDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_query_duration_milliseconds",
		Help:      "Histogram of standings rank and top-N query latency",
		Buckets:   m.histogramBuckets,
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_queue_depth",
		Help:      "Current number of queued simulation jobs",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_queue_capacity",
		Help:      "Configured capacity of the simulation job queue",
	})
	m.jobsEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_jobs_enqueued_total",
		Help:      "Total simulation jobs accepted into the queue",
	})
	m.jobsDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_jobs_dequeued_total",
		Help:      "Total simulation jobs handed to workers",
	})
	m.jobsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_jobs_completed_total",
		Help:      "Total simulation jobs that finished successfully",
	})
	m.jobsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_jobs_failed_total",
		Help:      "Total simulation jobs that ended in error",
	})
	m.jobsDeduplicated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_jobs_deduplicated_total",
		Help:      "Total simulation submissions dropped as duplicates",
	})
	m.activeWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_workers",
		Help:      "Number of simulation workers in the pool",
	})

	m.engineErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Total engine errors by component and kind",
	}, []string{"component", "kind"})
}

// Package-level helpers against the global manager.

// RecordSummaryComputed increments the week summary counter.
func RecordSummaryComputed() {
	globalManager.summariesComputed.Inc()
}

// RecordRecommendation increments the recommendation counter.
func RecordRecommendation() {
	globalManager.recommendationsServed.Inc()
}

// RecordRatingUpdate increments the rating update counter.
func RecordRatingUpdate() {
	globalManager.ratingUpdatesApplied.Inc()
}

// RecordSimulation records one simulation run with its trial count and
// wall-clock duration in seconds.
func RecordSimulation(trials int, seconds float64) {
	globalManager.simulationRuns.Inc()
	globalManager.simulationTrials.Add(float64(trials))
	globalManager.simulationDuration.Observe(seconds)
}

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// UpdateStandingsTeams sets the number of teams in the standings store.
func UpdateStandingsTeams(count int) {
	globalManager.standingsTeams.Set(float64(count))
}

// RecordStandingsUpdateDuration records standings upsert latency in milliseconds.
func RecordStandingsUpdateDuration(durationMs float64) {
	globalManager.standingsUpdateDuration.Observe(durationMs)
}

// RecordStandingsQueryDuration records standings query latency in milliseconds.
func RecordStandingsQueryDuration(durationMs float64) {
	globalManager.standingsQueryDuration.Observe(durationMs)
}

// UpdateQueueDepth sets the current simulation queue depth.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// UpdateQueueCapacity sets the configured simulation queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordJobEnqueued increments the accepted simulation job counter.
func RecordJobEnqueued() {
	globalManager.jobsEnqueued.Inc()
}

// RecordJobDequeued increments the dispatched simulation job counter.
func RecordJobDequeued() {
	globalManager.jobsDequeued.Inc()
}

// RecordJobCompleted increments the completed simulation job counter.
func RecordJobCompleted() {
	globalManager.jobsCompleted.Inc()
}

// RecordJobFailed increments the failed simulation job counter.
func RecordJobFailed() {
	globalManager.jobsFailed.Inc()
}

// RecordJobDeduplicated increments the duplicate submission counter.
func RecordJobDeduplicated() {
	globalManager.jobsDeduplicated.Inc()
}

// UpdateActiveWorkers sets the simulation worker pool size.
func UpdateActiveWorkers(count int) {
	globalManager.activeWorkers.Set(float64(count))
}

// RecordEngineError records an engine error by component and kind.
func RecordEngineError(component, kind string) {
	globalManager.engineErrors.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom registry for the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
