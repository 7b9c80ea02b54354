package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerrors "dts-converter/internal/errors"
	"dts-converter/internal/logging"
)

// writeJSON encodes v onto w. Headers must already be written; an encoding
// failure can only be logged at that point.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// respondJSON writes an uncached JSON response with the given status.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes {"error": message}.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus writes {"status": status}.
func writeJSONStatus(w http.ResponseWriter, statusCode int, status string) {
	respondJSON(w, statusCode, map[string]string{"status": status})
}

// writeDomainError maps err to its HTTP status. Domain errors carry a message
// safe to show; anything else gets the generic status text. Server-side
// failures are logged with the full error.
func writeDomainError(w http.ResponseWriter, err error) {
	code, message := domainErrorResponse(err)
	writeJSONError(w, message, code)
}

func domainErrorResponse(err error) (int, string) {
	code := domainerrors.StatusOf(err)

	message := http.StatusText(code)
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	if code >= http.StatusInternalServerError {
		logging.Error("Request failed: %v", err)
	}
	return code, message
}
