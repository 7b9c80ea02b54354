package handlers

import (
	"net/http"
	"runtime"
	"time"

	"dts-converter/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStopping = "stopping"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Worker pool
	Workers      int   `json:"workers"`
	RunningTasks int64 `json:"runningTasks"`
	QueuedTasks  int64 `json:"queuedTasks"`
	TotalJobs    int   `json:"totalJobs"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready := !h.pool.Closed()

	response := HealthResponse{
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Workers:      h.pool.Size(),
		RunningTasks: h.pool.Running(),
		QueuedTasks:  h.pool.Queued(),
		TotalJobs:    h.jobs.Len(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	code := http.StatusOK
	response.Status = statusHealthy
	if !ready {
		code = http.StatusServiceUnavailable
		response.Status = statusStopping
	}
	respondJSON(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only while new conversions are accepted
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.pool.Closed() {
		writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
		return
	}
	writeJSONStatus(w, http.StatusOK, "ready")
}
