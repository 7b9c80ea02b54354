// Package handlers provides HTTP request handlers for the conversion API.
//
// It includes handlers for:
//   - Submitting a file or directory for conversion
//   - Listing conversions and fetching one by id
//   - Health, liveness and readiness checks
//   - Version information and Prometheus metrics
package handlers
