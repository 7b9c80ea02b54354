package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dts-converter/internal/jobs"
	"dts-converter/internal/logging"

	"github.com/gorilla/mux"
)

const maxRequestBody = 1 << 20

// ConvertRequest is the body of POST /convert/.
type ConvertRequest struct {
	Path string `json:"path"`
}

// FileAccepted is returned when a single file was scheduled.
type FileAccepted struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// DirectoryAccepted is returned when a directory was scheduled.
type DirectoryAccepted struct {
	Message       string   `json:"message"`
	ConversionIDs []string `json:"conversion_ids"`
}

// PartialSubmission is returned when a directory walk stopped part way. The
// listed jobs were created and remain visible in GET /conversions/.
type PartialSubmission struct {
	Error         string   `json:"error"`
	ConversionIDs []string `json:"conversion_ids"`
}

// ConversionStatus is one entry of GET /conversions/.
type ConversionStatus struct {
	ID          string  `json:"id"`
	Filename    string  `json:"filename"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Status      string  `json:"status"`
	ElapsedTime string  `json:"elapsed_time"`
	State       string  `json:"state"`
}

// Convert accepts a file or directory path and schedules conversions.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.submitter.Submit(req.Path)
	if err != nil && len(sub.IDs) > 0 {
		logging.Warn("Submission of %s stopped after %d jobs: %v (ids: %s)", req.Path, len(sub.IDs), err, strings.Join(sub.IDs, ","))
		code, message := domainErrorResponse(err)
		respondJSON(w, code, PartialSubmission{Error: message, ConversionIDs: sub.IDs})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if sub.Directory {
		ids := sub.IDs
		if ids == nil {
			ids = []string{}
		}
		respondJSON(w, http.StatusAccepted, DirectoryAccepted{
			Message:       fmt.Sprintf("Directory processing started. %d files queued.", len(ids)),
			ConversionIDs: ids,
		})
		return
	}

	respondJSON(w, http.StatusAccepted, FileAccepted{ID: sub.IDs[0], Message: "Conversion started"})
}

// ListConversions returns every job in submission order.
func (h *Handlers) ListConversions(w http.ResponseWriter, _ *http.Request) {
	all := h.jobs.List()
	now := h.jobs.Now()

	out := make([]ConversionStatus, 0, len(all))
	for _, job := range all {
		out = append(out, toStatus(job, now))
	}

	respondJSON(w, http.StatusOK, out)
}

// GetConversion returns a single job.
func (h *Handlers) GetConversion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.jobs.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toStatus(job, h.jobs.Now()))
}

func toStatus(job jobs.Job, now time.Time) ConversionStatus {
	status := ConversionStatus{
		ID:          job.ID,
		Filename:    job.Filename,
		StartTime:   job.StartTime.Format(jobs.TimeLayout),
		Status:      job.Status(),
		ElapsedTime: jobs.FormatElapsed(job.Elapsed(now)),
		State:       job.State.String(),
	}
	if job.EndTime != nil {
		end := job.EndTime.Format(jobs.TimeLayout)
		status.EndTime = &end
	}
	return status
}
