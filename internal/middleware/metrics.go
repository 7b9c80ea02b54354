package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"dts-converter/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are path prefixes that are not recorded.
	SkipPaths []string
}

// DefaultMetricsConfig skips scrapes and probes.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns middleware recording request count, latency and in-flight
// requests. Install it with Router.Use so the matched route template is
// available as the path label.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasAnyPrefix(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			path := routeLabel(r)
			metrics.HTTPRequestsInFlight.Inc()
			timer := prometheus.NewTimer(metrics.HTTPRequestDuration.WithLabelValues(r.Method, path))

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			timer.ObserveDuration()
			metrics.HTTPRequestsInFlight.Dec()
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		})
	}
}

// routeLabel returns the matched route template, so /conversions/{id} is one
// series regardless of the id.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
