package workers

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"dts-converter/internal/logging"
	"dts-converter/internal/metrics"
)

// ErrPoolClosed is returned by Go after Shutdown has been called.
var ErrPoolClosed = errors.New("worker pool is shut down")

// Task is a unit of work run by the pool. ctx is cancelled when the pool is
// forced to stop.
type Task func(ctx context.Context)

// Pool runs tasks with bounded concurrency. Go never blocks the caller: every
// task gets its own goroutine that waits for one of size slots. Only
// execution is bounded; the queue is not, and each queued task holds a parked
// goroutine until a slot frees up or the pool is cancelled.
type Pool struct {
	size int
	sem  chan struct{}
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc

	queued  atomic.Int64
	running atomic.Int64
}

// NewPool creates a pool that runs at most size tasks at once. size < 1 is
// treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	metrics.WorkerPoolSize.Set(float64(size))

	return &Pool{
		size:   size,
		sem:    make(chan struct{}, size),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Size returns the maximum number of concurrently running tasks.
func (p *Pool) Size() int {
	return p.size
}

// Queued returns the number of tasks waiting for a slot.
func (p *Pool) Queued() int64 {
	return p.queued.Load()
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int64 {
	return p.running.Load()
}

// Closed reports whether Shutdown has been called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Go schedules task and returns immediately. It never rejects work for lack
// of capacity; only a closed pool refuses a task.
func (p *Pool) Go(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.wg.Add(1)
	p.queued.Add(1)
	metrics.WorkerPoolQueued.Inc()

	go p.run(task)
	return nil
}

func (p *Pool) run(task Task) {
	defer p.wg.Done()

	acquired := false
	select {
	case p.sem <- struct{}{}:
		acquired = true
	case <-p.ctx.Done():
	}
	p.queued.Add(-1)
	metrics.WorkerPoolQueued.Dec()

	if acquired {
		p.running.Add(1)
		defer func() {
			p.running.Add(-1)
			<-p.sem
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.WorkerPanicsTotal.Inc()
			logging.Error("Recovered panic in worker: %v\n%s", r, debug.Stack())
		}
	}()

	// A task that never got a slot still runs, with a cancelled context, so
	// it can record that it was interrupted.
	task(p.ctx)
}

// Shutdown stops accepting tasks and waits for scheduled ones to finish.
// When ctx expires first, the task context is cancelled and ctx.Err() is
// returned; tasks still waiting for a slot then run with the cancelled
// context.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
