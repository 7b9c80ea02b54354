package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"dts-converter/internal/logging"
	"dts-converter/internal/notify"
	"dts-converter/internal/workers"

	"github.com/gorilla/mux"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/term"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Methods []string
	Path    string
	Name    string
}

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool
	ShutdownTimeout time.Duration

	// Conversion
	Workers        int
	FFmpegPath     string
	FFprobePath    string
	SourceCodec    string
	TargetCodec    string
	DefaultBitrate int64
	EncodeTimeout  time.Duration

	Notifications notify.Config
}

// fileConfig mirrors the optional TOML file. Pointer fields distinguish
// "unset" from a zero value.
type fileConfig struct {
	Server struct {
		Port            string `toml:"port"`
		MetricsPort     string `toml:"metrics_port"`
		MetricsEnabled  *bool  `toml:"metrics_enabled"`
		LogHealthChecks *bool  `toml:"log_health_checks"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Conversion struct {
		Workers        int    `toml:"workers"`
		FFmpegPath     string `toml:"ffmpeg_path"`
		FFprobePath    string `toml:"ffprobe_path"`
		SourceCodec    string `toml:"source_codec"`
		TargetCodec    string `toml:"target_codec"`
		DefaultBitrate int64  `toml:"default_bitrate"`
		EncodeTimeout  string `toml:"encode_timeout"`
	} `toml:"conversion"`
	Notifications struct {
		Enabled        *bool  `toml:"enabled"`
		TelegramToken  string `toml:"telegram_token"`
		TelegramChatID string `toml:"telegram_chat_id"`
		TelegramAPIURL string `toml:"telegram_api_url"`
		RequestTimeout string `toml:"request_timeout"`
	} `toml:"notifications"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            "8000",
		MetricsPort:     "9090",
		MetricsEnabled:  true,
		LogHealthChecks: true,
		ShutdownTimeout: 30 * time.Second,
		Workers:         workers.ForCPU(4),
		FFmpegPath:      "ffmpeg",
		FFprobePath:     "ffprobe",
		SourceCodec:     "dts",
		TargetCodec:     "eac3",
		DefaultBitrate:  768000,
		Notifications: notify.Config{
			TelegramAPIURL: notify.DefaultAPIURL,
			RequestTimeout: 10 * time.Second,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional TOML file
// named by CONFIG_FILE, and environment variables, in increasing precedence.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(config, path); err != nil {
			return nil, err
		}
		logging.Info("  CONFIG_FILE:         %s", path)
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("  SHUTDOWN_TIMEOUT:    %s", config.ShutdownTimeout)
	logging.Info("  CONVERT_WORKERS:     %d", config.Workers)
	logging.Info("  SOURCE_CODEC:        %s", config.SourceCodec)
	logging.Info("  TARGET_CODEC:        %s", config.TargetCodec)
	logging.Info("  DEFAULT_BITRATE:     %d", config.DefaultBitrate)
	if config.EncodeTimeout > 0 {
		logging.Info("  ENCODE_TIMEOUT:      %s", config.EncodeTimeout)
	} else {
		logging.Info("  ENCODE_TIMEOUT:      none")
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Metrics:       %s", enabledString(config.MetricsEnabled))
	logging.Info("    Notifications: %s", enabledString(config.NotificationsActive()))
	if config.Notifications.Enabled && !config.NotificationsActive() {
		logging.Warn("    NOTIFY_ENABLED is set but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is missing")
	}

	return config, nil
}

func loadFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config file %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return fc.apply(config)
}

func (fc *fileConfig) apply(config *Config) error {
	setString(&config.Port, fc.Server.Port)
	setString(&config.MetricsPort, fc.Server.MetricsPort)
	setBool(&config.MetricsEnabled, fc.Server.MetricsEnabled)
	setBool(&config.LogHealthChecks, fc.Server.LogHealthChecks)
	if err := setDuration(&config.ShutdownTimeout, fc.Server.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
		return err
	}

	if fc.Conversion.Workers > 0 {
		config.Workers = fc.Conversion.Workers
	}
	setString(&config.FFmpegPath, fc.Conversion.FFmpegPath)
	setString(&config.FFprobePath, fc.Conversion.FFprobePath)
	setString(&config.SourceCodec, fc.Conversion.SourceCodec)
	setString(&config.TargetCodec, fc.Conversion.TargetCodec)
	if fc.Conversion.DefaultBitrate > 0 {
		config.DefaultBitrate = fc.Conversion.DefaultBitrate
	}
	if err := setDuration(&config.EncodeTimeout, fc.Conversion.EncodeTimeout, "conversion.encode_timeout"); err != nil {
		return err
	}

	n := &config.Notifications
	setBool(&n.Enabled, fc.Notifications.Enabled)
	setString(&n.TelegramToken, fc.Notifications.TelegramToken)
	setString(&n.TelegramChatID, fc.Notifications.TelegramChatID)
	setString(&n.TelegramAPIURL, fc.Notifications.TelegramAPIURL)
	return setDuration(&n.RequestTimeout, fc.Notifications.RequestTimeout, "notifications.request_timeout")
}

func applyEnv(config *Config) {
	config.Port = getEnv("PORT", config.Port)
	config.MetricsPort = getEnv("METRICS_PORT", config.MetricsPort)
	config.MetricsEnabled = getEnvBool("METRICS_ENABLED", config.MetricsEnabled)
	config.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", config.LogHealthChecks)
	config.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", config.ShutdownTimeout)

	config.Workers = getEnvInt("CONVERT_WORKERS", config.Workers)
	config.FFmpegPath = getEnv("FFMPEG_PATH", config.FFmpegPath)
	config.FFprobePath = getEnv("FFPROBE_PATH", config.FFprobePath)
	config.SourceCodec = strings.ToLower(getEnv("SOURCE_CODEC", config.SourceCodec))
	config.TargetCodec = strings.ToLower(getEnv("TARGET_CODEC", config.TargetCodec))
	config.DefaultBitrate = getEnvInt64("DEFAULT_BITRATE", config.DefaultBitrate)
	config.EncodeTimeout = getEnvDuration("ENCODE_TIMEOUT", config.EncodeTimeout)

	n := &config.Notifications
	n.Enabled = getEnvBool("NOTIFY_ENABLED", n.Enabled)
	n.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", n.TelegramToken)
	n.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", n.TelegramChatID)
	n.TelegramAPIURL = getEnv("TELEGRAM_API_URL", n.TelegramAPIURL)
	n.RequestTimeout = getEnvDuration("NOTIFY_TIMEOUT", n.RequestTimeout)
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: must be numeric", c.Port)
	}
	if c.MetricsEnabled {
		if _, err := strconv.Atoi(c.MetricsPort); err != nil {
			return fmt.Errorf("invalid METRICS_PORT %q: must be numeric", c.MetricsPort)
		}
		if c.MetricsPort == c.Port {
			return fmt.Errorf("METRICS_PORT must differ from PORT (%s)", c.Port)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("CONVERT_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.SourceCodec == "" || c.TargetCodec == "" {
		return errors.New("SOURCE_CODEC and TARGET_CODEC must not be empty")
	}
	if c.SourceCodec == c.TargetCodec {
		return fmt.Errorf("SOURCE_CODEC and TARGET_CODEC are both %q", c.SourceCodec)
	}
	if c.DefaultBitrate < 1000 {
		return fmt.Errorf("DEFAULT_BITRATE must be at least 1000, got %d", c.DefaultBitrate)
	}
	return nil
}

// NotificationsActive reports whether notifications are enabled and fully
// configured.
func (c *Config) NotificationsActive() bool {
	n := c.Notifications
	return n.Enabled && strings.TrimSpace(n.TelegramToken) != "" && strings.TrimSpace(n.TelegramChatID) != ""
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v, key string) error {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogToolsInit checks that ffprobe and ffmpeg can be executed.
func LogToolsInit(ffprobePath, ffmpegPath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEDIA TOOLS")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{ffprobePath, ffmpegPath} {
		if err := checkTool(tool); err != nil {
			logging.Warn("  %s check failed: %v", tool, err)
			logging.Warn("  Conversions will fail until it is installed")
		} else {
			logging.Info("  [OK] %s is available", tool)
		}
	}
}

// LogWorkerPoolInit logs worker pool sizing.
func LogWorkerPoolInit(size int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WORKER POOL")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Concurrent conversions: %d", size)
}

// GetRoutes lists every registered route, one entry per path with its
// methods sorted. Routes without a method matcher report "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		methods = slices.Clone(methods)
		slices.Sort(methods)

		routes = append(routes, RouteInfo{
			Methods: methods,
			Path:    path,
			Name:    route.GetName(),
		})
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the route table at debug level, grouped by first path
// segment, and the access log settings at info.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		logging.Debug("  Registered routes (%d total):", len(routes))

		slices.SortStableFunc(routes, func(a, b RouteInfo) int {
			return strings.Compare(getRouteGroup(a.Path), getRouteGroup(b.Path))
		})
		group := "\x00"
		for _, route := range routes {
			if g := getRouteGroup(route.Path); g != group {
				group = g
				label := group
				if label == "" {
					label = "root"
				}
				logging.Debug("  [%s]", label)
			}
			logging.Debug("    %-9s %s", strings.Join(route.Methods, ","), route.Path)
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup returns the first segment of a route path.
func getRouteGroup(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Convert:       POST http://0.0.0.0:%s/convert/", config.Port)
	logging.Info("    Conversions:   GET  http://0.0.0.0:%s/conversions/", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(`
------------------------------------------------------------
    ___  ___________    ___________   ____
   / _ \/_  __/ __/   / __/ _ |  _ \/_  /
  / // / / / _\ \    / _// __ |/ ___//_ <
 /____/ /_/ /___/   /___/_/ |_/_/  /____/

------------------------------------------------------------`)
	}
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(first))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseEnv reads key with parse, keeping defaultValue when the variable is
// unset or malformed.
func parseEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		logging.Warn("Invalid value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, strconv.ParseBool)
}

func getEnvInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

func getEnvInt64(key string, defaultValue int64) int64 {
	return parseEnv(key, defaultValue, func(v string) (int64, error) {
		return strconv.ParseInt(v, 10, 64)
	})
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}
