// Package metrics provides Prometheus instrumentation for the converter
// service. All metrics are prefixed with "dts_converter_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal: Counter of requests by method, route and status
//   - HTTPRequestDuration: Histogram of request duration by method and route
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Job Metrics
//   - JobsSubmittedTotal: Counter of created jobs by source (file/directory)
//   - JobsFinishedTotal: Counter of terminal transitions by state
//   - JobsInProgress: Gauge of running conversion tasks
//   - JobDuration: Histogram of task duration by terminal state
//   - JobsByState: Gauge of registry contents, refreshed by the Collector
//   - DirectoryWalkErrors: Counter of entries skipped during fan-out
//
// ## Worker Pool Metrics
//   - WorkerPoolSize, WorkerPoolQueued, WorkerPanicsTotal
//
// ## External Tool Metrics
//   - ToolInvocationsTotal / ToolDuration for ffprobe and ffmpeg
//   - EncodesInProgress: Gauge of live ffmpeg processes
//
// ## Notification and Filesystem Metrics
//   - NotificationsTotal by delivery status
//   - FilesystemRetryAttempts / FilesystemRetryFailures / FilesystemOperationDuration
//
// Metrics are served by promhttp on the metrics port when METRICS_ENABLED is
// true.
package metrics
