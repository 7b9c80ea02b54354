// Package middleware provides HTTP middleware for the conversion API.
//
// It includes:
//   - Request logging in W3C Extended Log Format, tagged with X-Request-ID
//   - Prometheus request metrics labelled by mux route template
//   - Gzip compression of large JSON responses
package middleware
