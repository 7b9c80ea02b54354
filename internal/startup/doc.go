// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] starts from built-in defaults, applies the optional TOML file
// named by CONFIG_FILE, then applies environment variables, which win:
//
//   - PORT: HTTP API port (default: 8000)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - SHUTDOWN_TIMEOUT: Grace period for running conversions (default: 30s)
//   - CONVERT_WORKERS: Concurrent conversions (default: one per CPU, max 4)
//   - FFMPEG_PATH, FFPROBE_PATH: Tool binaries (default: looked up in PATH)
//   - SOURCE_CODEC: Audio codec to convert from (default: dts)
//   - TARGET_CODEC: Audio codec to convert to (default: eac3)
//   - DEFAULT_BITRATE: Bits per second for tracks without one (default: 768000)
//   - ENCODE_TIMEOUT: Maximum ffmpeg run time as Go duration (default: none)
//   - NOTIFY_ENABLED: Send Telegram notifications (default: false)
//   - TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID: Telegram credentials
//   - TELEGRAM_API_URL: Bot API base URL (default: https://api.telegram.org)
//   - NOTIFY_TIMEOUT: Per-message request timeout (default: 10s)
//
// The TOML file groups the same settings under [server], [conversion] and
// [notifications]:
//
//	[server]
//	port = "8000"
//	shutdown_timeout = "1m"
//
//	[conversion]
//	workers = 2
//	encode_timeout = "2h"
//
//	[notifications]
//	enabled = true
//	telegram_token = "123:abc"
//	telegram_chat_id = "42"
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// [LogToolsInit], [LogWorkerPoolInit], [LogHTTPRoutes], [LogServerStarted]
// and the LogShutdown* helpers print the sectioned startup and shutdown log.
package startup
