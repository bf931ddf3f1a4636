// Package metrics provides Prometheus metrics for the results compiler service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets cover compilation stages from sub-millisecond
// parses to multi-second report builds, in milliseconds.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // shared default bucket layout

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Job lifecycle
	jobsSubmitted prometheus.Counter
	jobsRejected  prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    prometheus.Counter

	// Input validation and intake
	validationFailures *prometheus.CounterVec
	sheetsLoaded       prometheus.Counter
	sourceRows         prometheus.Counter
	uploadsStored      prometheus.Counter

	// Merge and scoring
	participantsMerged prometheus.Counter
	duplicatesFolded   prometheus.Counter
	participantsPassed prometheus.Counter
	participantsFailed prometheus.Counter

	// Pipeline timings
	pipelineDuration prometheus.Histogram
	stageDuration    *prometheus.HistogramVec
	reportsWritten   prometheus.Counter

	// Queue health
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueues     prometheus.Counter
	queueDequeues     prometheus.Counter
	queueEnqueueDrops prometheus.Counter

	// Worker pool health
	workerActive  prometheus.Gauge
	workerIdle    prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// WebSocket feed
	wsClients    prometheus.Gauge
	wsBroadcasts prometheus.Counter

	// Cross-component error tracking
	errorsByComponent *prometheus.CounterVec

	// Process health
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	gcPause          prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry so /metrics serves only service collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager builds a metrics manager and registers every collector.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mlj",
		subsystem:        "compiler",
		histogramBuckets: defaultLatencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.register()
	return m
}

func (m *Manager) register() { //nolint:funlen // every collector is declared in one place
	auto := promauto.With(m.registry)

	m.jobsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_submitted_total",
		Help:      "Total number of compilation jobs accepted for processing",
	})

	m.jobsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_rejected_total",
		Help:      "Total number of submissions rejected before a job was created",
	})

	m.jobsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_completed_total",
		Help:      "Total number of jobs that produced a report",
	})

	m.jobsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_failed_total",
		Help:      "Total number of jobs that ended in an error state",
	})

	m.validationFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "validation_failures_total",
			Help:      "Total number of input files rejected by validation, by reason",
		},
		[]string{"reason"},
	)

	m.sheetsLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sheets_loaded_total",
		Help:      "Total number of source spreadsheets parsed successfully",
	})

	m.sourceRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_rows_total",
		Help:      "Total number of data rows read from source spreadsheets",
	})

	m.uploadsStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "uploads_stored_total",
		Help:      "Total number of uploaded files written to the upload directory",
	})

	m.participantsMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_merged_total",
		Help:      "Total number of distinct participants produced by merges",
	})

	m.duplicatesFolded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicates_folded_total",
		Help:      "Total number of source rows folded into an existing participant",
	})

	m.participantsPassed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_passed_total",
		Help:      "Total number of participants graded PASS",
	})

	m.participantsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_failed_total",
		Help:      "Total number of participants graded FAIL",
	})

	m.pipelineDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_duration_milliseconds",
		Help:      "End-to-end compilation pipeline duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_duration_milliseconds",
			Help:      "Pipeline stage duration in milliseconds, by stage",
			Buckets:   m.histogramBuckets,
		},
		[]string{"stage"},
	)

	m.reportsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_written_total",
		Help:      "Total number of report workbooks written to disk",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of dispatches waiting in the job queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum job queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Job queue utilization ratio (size / capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of dispatches enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of dispatches dequeued by workers",
	})

	m.queueEnqueueDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_drops_total",
		Help:      "Total number of dispatches refused because the queue was full",
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of workers currently running a pipeline",
	})

	m.workerIdle = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_idle_count",
		Help:      "Number of workers waiting for a dispatch",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_job_latency_milliseconds",
		Help:      "Time a worker spent on a single job in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of jobs a worker finished with an error",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.wsClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_clients",
		Help:      "Number of connected WebSocket clients",
	})

	m.wsBroadcasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_broadcasts_total",
		Help:      "Total number of job updates broadcast to WebSocket clients",
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemory = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.gcPause = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gc_pause_milliseconds",
		Help:      "Average garbage collector pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordJobSubmitted increments the accepted-jobs counter.
func RecordJobSubmitted() {
	globalManager.jobsSubmitted.Inc()
}

// RecordJobRejected increments the rejected-submissions counter.
func RecordJobRejected() {
	globalManager.jobsRejected.Inc()
}

// RecordJobCompleted increments the completed-jobs counter.
func RecordJobCompleted() {
	globalManager.jobsCompleted.Inc()
}

// RecordJobFailed increments the failed-jobs counter.
func RecordJobFailed() {
	globalManager.jobsFailed.Inc()
}

// RecordValidationFailure counts a rejected input file by reason.
func RecordValidationFailure(reason string) {
	globalManager.validationFailures.WithLabelValues(reason).Inc()
}

// RecordSheetLoaded counts a parsed spreadsheet and its data rows.
func RecordSheetLoaded(rows int) {
	globalManager.sheetsLoaded.Inc()
	globalManager.sourceRows.Add(float64(rows))
}

// RecordUploadStored increments the stored-uploads counter.
func RecordUploadStored() {
	globalManager.uploadsStored.Inc()
}

// RecordMerge counts the participants and folded duplicates of one merge.
func RecordMerge(participants, duplicates int) {
	globalManager.participantsMerged.Add(float64(participants))
	globalManager.duplicatesFolded.Add(float64(duplicates))
}

// RecordGrades counts pass and fail verdicts from one scoring run.
func RecordGrades(passed, failed int) {
	globalManager.participantsPassed.Add(float64(passed))
	globalManager.participantsFailed.Add(float64(failed))
}

// RecordPipelineDuration records an end-to-end pipeline duration.
func RecordPipelineDuration(latencyMs float64) {
	globalManager.pipelineDuration.Observe(latencyMs)
}

// RecordStageDuration records one pipeline stage duration.
func RecordStageDuration(stage string, latencyMs float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(latencyMs)
}

// RecordReportWritten increments the written-reports counter.
func RecordReportWritten() {
	globalManager.reportsWritten.Inc()
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(ratio float64) {
	globalManager.queueUtilization.Set(ratio)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueDrop counts a dispatch refused by a full queue.
func RecordQueueEnqueueDrop() {
	globalManager.queueEnqueueDrops.Inc()
}

// UpdateWorkerActiveCount sets the busy-worker gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// UpdateWorkerIdleCount sets the idle-worker gauge.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdle.Set(float64(count))
}

// RecordWorkerJobLatency records how long a worker held one job.
func RecordWorkerJobLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, latencyMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(latencyMs)
}

// UpdateWSClients sets the connected WebSocket client gauge.
func UpdateWSClients(count int) {
	globalManager.wsClients.Set(float64(count))
}

// RecordWSBroadcast increments the broadcast counter.
func RecordWSBroadcast() {
	globalManager.wsBroadcasts.Inc()
}

// RecordErrorByComponent counts an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemory.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime records an observed GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.gcPause.Observe(pauseMs)
}

// GetRegistry returns the custom registry backing the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
