package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dts-converter/internal/logging"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"

	serviceName     = "DTSConverter/1.0"
	maxRequestIDLen = 64
)

// w3cFields is the field order of every access log line.
var w3cFields = []string{
	"date", "time", "c-ip", "cs-method", "cs-uri-stem", "cs-uri-query",
	"sc-status", "sc-bytes", "time-taken", "sc(Content-Encoding)",
	"cs(User-Agent)", "x-request-id",
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged.
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig logs everything except metrics scrapes.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		LogHealthChecks: true,
	}
}

// Directives returns the W3C header lines describing the access log.
func Directives(start time.Time) []string {
	return []string{
		"#Version: 1.0",
		"#Software: " + serviceName,
		"#Date: " + start.UTC().Format("2006-01-02 15:04:05"),
		"#Fields: " + strings.Join(w3cFields, " "),
	}
}

// Logger returns middleware that writes one W3C extended log line per request
// and tags each request with an id. An incoming X-Request-ID is reused when it
// is safe to log; otherwise a new one is generated. The id is echoed in the
// response headers so a client can correlate a submission with the log.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	for _, line := range Directives(time.Now()) {
		logging.Println(line)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)

			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			//nolint:gosec // G706: every request-controlled field goes through sanitizeLogField.
			logging.Println(formatLine(start.UTC(), r, rec, time.Since(start), id))
		})
	}
}

func formatLine(now time.Time, r *http.Request, rec *statusRecorder, took time.Duration, id string) string {
	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		orDash(sanitizeLogField(getClientIP(r))),
		orDash(sanitizeLogField(r.Method)),
		orDash(sanitizeLogField(r.URL.Path)),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.bytes, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		orDash(rec.Header().Get("Content-Encoding")),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
		id,
	}
	return strings.Join(fields, " ")
}

// requestID returns the caller's id when it is short and printable, else a
// fresh UUID.
func requestID(r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > maxRequestIDLen || strings.ContainsFunc(id, func(c rune) bool {
		return c <= ' ' || c > '~' || c == '"'
	}) {
		return uuid.NewString()
	}
	return id
}

// sanitizeLogField turns CR and LF into spaces and strips other control
// characters except tab, so one request cannot forge extra log lines or emit
// terminal escapes.
func sanitizeLogField(s string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c == '\n' || c == '\r':
			return ' '
		case c == '\t':
			return c
		case c < 0x20 || c == 0x7f:
			return -1
		}
		return c
	}, s)
}

func shouldSkip(path string, config LoggingConfig) bool {
	return hasAnyPrefix(path, config.SkipPaths) || (!config.LogHealthChecks && healthCheckPaths[path])
}

// getClientIP prefers proxy headers, then the connection address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// escapeW3CField quotes values containing whitespace or quotes, doubling any
// embedded quote.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
