package handlers

import (
	"time"

	"dts-converter/internal/dispatch"
	"dts-converter/internal/jobs"
)

// Submitter schedules conversions for a path.
type Submitter interface {
	Submit(path string) (dispatch.Submission, error)
}

// JobStore is the read side of the job registry.
type JobStore interface {
	List() []jobs.Job
	Get(id string) (jobs.Job, error)
	Len() int
	Now() time.Time
}

// PoolStatus exposes worker pool state for health checks.
type PoolStatus interface {
	Closed() bool
	Size() int
	Queued() int64
	Running() int64
}

type Handlers struct {
	submitter Submitter
	jobs      JobStore
	pool      PoolStatus
	startTime time.Time
}

func New(submitter Submitter, store JobStore, pool PoolStatus) *Handlers {
	return &Handlers{
		submitter: submitter,
		jobs:      store,
		pool:      pool,
		startTime: time.Now(),
	}
}
