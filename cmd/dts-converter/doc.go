// Package main provides the entry point for the DTS converter service.
//
// The service accepts a file or directory path over HTTP and, for every video
// file found, re-encodes DTS audio tracks to E-AC-3 in the background. Jobs are
// tracked in memory and can be listed while they run.
//
// # Application Lifecycle
//
//  1. Configuration loading: defaults, optional TOML file, then environment
//  2. Metrics registration and filesystem observer wiring
//  3. Component initialization:
//     - Job registry
//     - ffprobe inspector and ffmpeg transcoder
//     - Notifier (Telegram or no-op, delivered asynchronously)
//     - Converter and worker pool
//     - Dispatcher for file and directory submissions
//  4. HTTP server setup with logging, metrics and compression middleware
//  5. Graceful shutdown on SIGINT/SIGTERM
//
// # HTTP Server
//
// The main server (default port 8000) serves:
//
//   - POST /convert/       schedule a file or every file under a directory
//   - GET  /conversions/   list every job with its status and elapsed time
//   - GET  /conversions/{id}
//   - /health, /healthz, /livez, /readyz, /version
//
// When METRICS_ENABLED is true a second server (default port 9090) exposes
// /metrics and /health.
//
// # Graceful Shutdown
//
//  1. Stop accepting HTTP requests
//  2. Drain the worker pool until SHUTDOWN_TIMEOUT
//  3. Kill remaining ffmpeg processes; interrupted jobs are marked as errors
//  4. Flush pending notifications
//  5. Stop the metrics collector and metrics server
//
// # Build
//
//	go build -ldflags "-X dts-converter/internal/startup.Version=1.0.0" -o dts-converter ./cmd/dts-converter
//
// See [dts-converter/internal/startup] for the full list of settings.
package main
