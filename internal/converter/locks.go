package converter

import (
	"context"
	"sync"
)

// pathLocks hands out one mutex per source path. Entries are removed once
// no task holds or waits on them.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	ch   chan struct{}
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// acquire blocks until path is free or ctx is done. The returned func
// releases the lock.
func (p *pathLocks) acquire(ctx context.Context, path string) (func(), error) {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &pathLock{ch: make(chan struct{}, 1)}
		p.locks[path] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			p.release(path, l)
		}, nil
	case <-ctx.Done():
		p.release(path, l)
		return nil, ctx.Err()
	}
}

func (p *pathLocks) release(path string, l *pathLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, path)
	}
}

func (p *pathLocks) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
