package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	domainerrors "dts-converter/internal/errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for ids the registry never created.
	ErrNotFound = domainerrors.ErrNotFound

	// ErrAlreadyFinished is returned when a terminal job is transitioned again.
	ErrAlreadyFinished = domainerrors.Conflictf("job already finished")

	// ErrInvalidTransition is returned by SetStatus for a terminal or
	// backwards state.
	ErrInvalidTransition = errors.New("invalid job state transition")
)

type record struct {
	job Job
}

// Registry is the in-memory store of every job created by the process. It
// is append-only: jobs are never evicted.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*record
	order []string

	now   func() time.Time
	newID func() string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		jobs:  make(map[string]*record),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new pending job for filename and returns it.
func (r *Registry) Create(filename string) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for r.jobs[id] != nil {
		id = r.newID()
	}

	rec := &record{job: Job{
		ID:        id,
		Filename:  filename,
		StartTime: r.now(),
		State:     StatePending,
	}}
	r.jobs[id] = rec
	r.order = append(r.order, id)
	return rec.job
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return rec.job.clone(), nil
}

// SetStatus moves a job to a non-terminal state. Terminal states must go
// through Finish so that the end time is stamped with them.
func (r *Registry) SetStatus(id string, state State) error {
	if state.IsTerminal() {
		return fmt.Errorf("set %s on job %s: %w", state, id, ErrInvalidTransition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if rec.job.State.IsTerminal() {
		return fmt.Errorf("job %s: %w", id, ErrAlreadyFinished)
	}
	if state < rec.job.State {
		return fmt.Errorf("job %s %s -> %s: %w", id, rec.job.State, state, ErrInvalidTransition)
	}
	rec.job.State = state
	return nil
}

// Finish moves a job to a terminal state and stamps its end time in the
// same critical section. It succeeds at most once per job.
func (r *Registry) Finish(id string, state State, detail string) (Job, error) {
	if !state.IsTerminal() {
		return Job{}, fmt.Errorf("finish job %s with %s: %w", id, state, ErrInvalidTransition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if rec.job.State.IsTerminal() {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrAlreadyFinished)
	}

	end := r.now()
	rec.job.State = state
	rec.job.Detail = detail
	rec.job.EndTime = &end
	return rec.job.clone(), nil
}

// List returns snapshots of every job in creation order.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id].job.clone())
	}
	return out
}

// Len returns the number of jobs ever created.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// StateCounts returns the number of jobs per state name. Every state is
// present, with zero when unused.
func (r *Registry) StateCounts() map[string]int {
	counts := make(map[string]int, len(AllStates))
	for _, s := range AllStates {
		counts[s.String()] = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.jobs {
		counts[rec.job.State.String()]++
	}
	return counts
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

func (j Job) clone() Job {
	if j.EndTime != nil {
		end := *j.EndTime
		j.EndTime = &end
	}
	return j
}
