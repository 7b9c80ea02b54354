package handlers

import (
	"net/http"

	"dts-converter/internal/startup"
)

// GetVersion reports build information injected at link time.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, startup.GetBuildInfo())
}
