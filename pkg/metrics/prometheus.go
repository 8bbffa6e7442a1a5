// Package metrics provides Prometheus metrics for the Clockery game and its
// leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric subsystems.
const (
	subsystemGame        = "game"
	subsystemAudio       = "audio"
	subsystemLeaderboard = "leaderboard"
	subsystemHTTP        = "http"
	subsystemQueue       = "queue"
	subsystemWorker      = "worker"
	subsystemStore       = "store"
	subsystemWS          = "ws"
	subsystemSystem      = "system"
)

// Default score buckets, in seconds of score.
var defaultScoreBuckets = []float64{10, 30, 60, 90, 180, 300, 450, 600, 900} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for Clockery.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	scoreBuckets     []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Game session metrics.
	sessionsStarted prometheus.Counter
	sessionsEnded   prometheus.Counter
	gamesOver       prometheus.Counter
	finalScore      prometheus.Histogram
	clocksSpawned   prometheus.Counter
	clocksDormant   prometheus.Counter
	clocksRevived   prometheus.Counter
	oilLevel        prometheus.Gauge
	activeClocks    prometheus.Gauge
	frameDuration   prometheus.Histogram

	// Audio dispatch metrics.
	audioEvents *prometheus.CounterVec

	// Leaderboard business metrics.
	submissionsAccepted prometheus.Counter
	submissionsDup      prometheus.Counter
	submissionsRejected prometheus.Counter
	leaderboardUpdates  prometheus.Counter
	leaderboardEntries  prometheus.Gauge

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics.
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics.
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Store metrics.
	storeInsertLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// WebSocket metrics.
	wsClients    prometheus.Gauge
	wsBroadcasts prometheus.Counter

	// Process metrics, replacing the default Go collector.
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
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
		namespace:        "clockery",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     defaultScoreBuckets,
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

func (m *Manager) counter(subsystem, name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(subsystem, name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(subsystem, name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.sessionsStarted = m.counter(subsystemGame, "sessions_started_total", "Total number of game sessions started")
	m.sessionsEnded = m.counter(subsystemGame, "sessions_ended_total", "Total number of game sessions ended by the player")
	m.gamesOver = m.counter(subsystemGame, "game_over_total", "Total number of sessions that ran out of oil")
	m.finalScore = m.histogram(subsystemGame, "final_score_seconds", "Distribution of final scores", m.scoreBuckets)
	m.clocksSpawned = m.counter(subsystemGame, "clocks_spawned_total", "Total number of clocks spawned")
	m.clocksDormant = m.counter(subsystemGame, "clocks_dormant_total", "Total number of clocks that ran down")
	m.clocksRevived = m.counter(subsystemGame, "clocks_revived_total", "Total number of dormant clocks wound back to life")
	m.oilLevel = m.gauge(subsystemGame, "oil_level", "Oil level of the most recently ticked session")
	m.activeClocks = m.gauge(subsystemGame, "active_clocks", "Active ordinary clocks in the most recently ticked session")
	m.frameDuration = m.histogram(subsystemGame, "frame_duration_milliseconds", "Time spent simulating and drawing a frame", m.histogramBuckets)

	m.audioEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystemAudio,
		Name:        "events_total",
		Help:        "Audio events dispatched by kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.submissionsAccepted = m.counter(subsystemLeaderboard, "submissions_accepted_total", "Total number of score submissions accepted for processing")
	m.submissionsDup = m.counter(subsystemLeaderboard, "submissions_duplicate_total", "Total number of duplicate score submissions")
	m.submissionsRejected = m.counter(subsystemLeaderboard, "submissions_rejected_total", "Total number of score submissions rejected as implausible")
	m.leaderboardUpdates = m.counter(subsystemLeaderboard, "updates_total", "Total number of leaderboard inserts")
	m.leaderboardEntries = m.gauge(subsystemLeaderboard, "entries", "Number of entries on the leaderboard")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystemHTTP,
		Name:        "requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystemHTTP,
		Name:        "request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = m.gauge(subsystemQueue, "size", "Current number of submissions waiting in the queue")
	m.queueCapacity = m.gauge(subsystemQueue, "capacity", "Maximum queue capacity")
	m.queueEnqueued = m.counter(subsystemQueue, "enqueued_total", "Total number of submissions enqueued")
	m.queueDequeued = m.counter(subsystemQueue, "dequeued_total", "Total number of submissions dequeued")
	m.queueEnqueueErrors = m.counter(subsystemQueue, "enqueue_errors_total", "Total number of enqueue failures")

	m.workerCount = m.gauge(subsystemWorker, "count", "Number of running workers")
	m.workerProcessingLatency = m.histogram(subsystemWorker, "processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter(subsystemWorker, "errors_total", "Total number of worker processing errors")

	m.storeInsertLatency = m.histogram(subsystemStore, "insert_latency_milliseconds", "Store insert latency in milliseconds", m.histogramBuckets)
	m.storeQueryLatency = m.histogram(subsystemStore, "query_latency_milliseconds", "Store query latency in milliseconds", m.histogramBuckets)

	m.wsClients = m.gauge(subsystemWS, "clients", "Connected leaderboard WebSocket clients")
	m.wsBroadcasts = m.counter(subsystemWS, "broadcasts_total", "Total number of leaderboard updates broadcast")

	m.memoryUsage = m.gauge(subsystemSystem, "memory_usage_bytes", "Bytes of allocated heap objects")
	m.goroutineCount = m.gauge(subsystemSystem, "goroutines", "Number of goroutines")
	m.gcPauseTime = m.histogram(subsystemSystem, "gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

func on() bool { return globalManager != nil && globalManager.enabled }

// Game.

// RecordSessionStarted increments the sessions started counter.
func RecordSessionStarted() {
	if on() {
		globalManager.sessionsStarted.Inc()
	}
}

// RecordSessionEnded increments the sessions ended counter.
func RecordSessionEnded() {
	if on() {
		globalManager.sessionsEnded.Inc()
	}
}

// RecordGameOver counts a game over and observes its final score.
func RecordGameOver(score float64) {
	if on() {
		globalManager.gamesOver.Inc()
		globalManager.finalScore.Observe(score)
	}
}

// RecordClockSpawned increments the clocks spawned counter.
func RecordClockSpawned() {
	if on() {
		globalManager.clocksSpawned.Inc()
	}
}

// RecordClockDormant increments the dormant clocks counter.
func RecordClockDormant() {
	if on() {
		globalManager.clocksDormant.Inc()
	}
}

// RecordClockRevived increments the revived clocks counter.
func RecordClockRevived() {
	if on() {
		globalManager.clocksRevived.Inc()
	}
}

// UpdateOilLevel sets the oil level gauge.
func UpdateOilLevel(level float64) {
	if on() {
		globalManager.oilLevel.Set(level)
	}
}

// UpdateActiveClocks sets the active clocks gauge.
func UpdateActiveClocks(count int) {
	if on() {
		globalManager.activeClocks.Set(float64(count))
	}
}

// RecordFrameDuration records how long a frame took in milliseconds.
func RecordFrameDuration(ms float64) {
	if on() {
		globalManager.frameDuration.Observe(ms)
	}
}

// RecordAudioEvent counts a dispatched audio event.
func RecordAudioEvent(kind string) {
	if on() {
		globalManager.audioEvents.WithLabelValues(kind).Inc()
	}
}

// Leaderboard.

// RecordSubmissionAccepted increments the accepted submissions counter.
func RecordSubmissionAccepted() {
	if on() {
		globalManager.submissionsAccepted.Inc()
	}
}

// RecordSubmissionDuplicate increments the duplicate submissions counter.
func RecordSubmissionDuplicate() {
	if on() {
		globalManager.submissionsDup.Inc()
	}
}

// RecordSubmissionRejected increments the rejected submissions counter.
func RecordSubmissionRejected() {
	if on() {
		globalManager.submissionsRejected.Inc()
	}
}

// RecordLeaderboardUpdate increments the leaderboard updates counter.
func RecordLeaderboardUpdate() {
	if on() {
		globalManager.leaderboardUpdates.Inc()
	}
}

// UpdateLeaderboardEntries sets the number of entries on the board.
func UpdateLeaderboardEntries(count int) {
	if on() {
		globalManager.leaderboardEntries.Set(float64(count))
	}
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// Worker.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrors.Inc()
	}
}

// Store.

// RecordStoreInsertLatency records store insert latency.
func RecordStoreInsertLatency(latencyMs float64) {
	if on() {
		globalManager.storeInsertLatency.Observe(latencyMs)
	}
}

// RecordStoreQueryLatency records store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	if on() {
		globalManager.storeQueryLatency.Observe(latencyMs)
	}
}

// WebSocket.

// UpdateWSClients sets the connected WebSocket client gauge.
func UpdateWSClients(count int) {
	if on() {
		globalManager.wsClients.Set(float64(count))
	}
}

// RecordWSBroadcast increments the broadcast counter.
func RecordWSBroadcast() {
	if on() {
		globalManager.wsBroadcasts.Inc()
	}
}

// System.

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.memoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.goroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	if on() {
		globalManager.gcPauseTime.Observe(ms)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	if globalManager != nil {
		globalManager.enabled = enabled
	}
}
