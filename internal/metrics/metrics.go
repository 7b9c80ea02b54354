package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dts_converter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dts_converter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dts_converter_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job metrics
var (
	JobsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dts_converter_jobs_submitted_total",
			Help: "Total number of conversion jobs created",
		},
		[]string{"source"}, // "file" or "directory"
	)

	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dts_converter_jobs_finished_total",
			Help: "Total number of conversion jobs that reached a terminal state",
		},
		[]string{"state"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dts_converter_jobs_in_progress",
			Help: "Number of conversion tasks currently running",
		},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dts_converter_job_duration_seconds",
			Help:    "Conversion task duration from start of work to terminal state",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 3600},
		},
		[]string{"state"},
	)

	JobsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dts_converter_jobs",
			Help: "Number of jobs in the registry by state",
		},
		[]string{"state"},
	)

	DirectoryWalkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dts_converter_directory_walk_errors_total",
			Help: "Total number of entries skipped during directory fan-out",
		},
	)
)

// Worker pool metrics
var (
	WorkerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dts_converter_worker_pool_size",
			Help: "Maximum number of concurrently running conversion tasks",
		},
	)

	WorkerPoolQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dts_converter_worker_pool_queued",
			Help: "Number of scheduled tasks waiting for a worker slot",
		},
	)

	WorkerPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dts_converter_worker_panics_total",
			Help: "Total number of recovered task panics",
		},
	)
)

// External tool metrics
var (
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dts_converter_tool_invocations_total",
			Help: "Total number of ffprobe/ffmpeg invocations",
		},
		[]string{"tool", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dts_converter_tool_duration_seconds",
			Help:    "Duration of ffprobe/ffmpeg invocations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 5, 30, 60, 300, 900, 3600},
		},
		[]string{"tool"},
	)

	EncodesInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dts_converter_encodes_in_progress",
			Help: "Number of ffmpeg processes currently running",
		},
	)
)

// Notification metrics
var (
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dts_converter_notifications_total",
			Help: "Total number of notification delivery attempts",
		},
		[]string{"status"}, // "sent", "failed"
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dts_converter_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after a stale handle",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dts_converter_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dts_converter_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dts_converter_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// InitializeMetrics pre-populates the expected label combinations so every
// series is exported from the first scrape.
func InitializeMetrics(states []string) {
	for _, state := range states {
		JobsFinishedTotal.WithLabelValues(state)
		JobsByState.WithLabelValues(state)
	}
	for _, source := range []string{"file", "directory"} {
		JobsSubmittedTotal.WithLabelValues(source)
	}
	for _, tool := range []string{"ffprobe", "ffmpeg"} {
		ToolInvocationsTotal.WithLabelValues(tool, "success")
		ToolInvocationsTotal.WithLabelValues(tool, "error")
		ToolDuration.WithLabelValues(tool)
	}
	for _, status := range []string{"sent", "failed"} {
		NotificationsTotal.WithLabelValues(status)
	}
	for _, op := range []string{"stat", "rename"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemOperationDuration.WithLabelValues(op)
	}
}
