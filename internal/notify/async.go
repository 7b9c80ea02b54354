package notify

import (
	"context"
	"sync"
	"time"

	"dts-converter/internal/logging"
	"dts-converter/internal/metrics"
)

// Async wraps a Notifier so Notify returns immediately. Delivery runs in its
// own goroutine bounded by timeout; failures are logged and counted, never
// returned.
type Async struct {
	next    Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync wraps next. A non-positive timeout defaults to 15 seconds.
func NewAsync(next Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Async{next: next, timeout: timeout}
}

// Notify implements Notifier. It never blocks and always returns nil.
func (a *Async) Notify(ctx context.Context, message string) error {
	if _, ok := a.next.(Noop); ok {
		return nil
	}

	// Delivery outlives the task that triggered it.
	sendCtx := context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(sendCtx, a.timeout)
		defer cancel()

		if err := a.next.Notify(ctx, message); err != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			logging.Warn("Notification failed: %v", err)
			return
		}
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}()
	return nil
}

// Wait blocks until pending deliveries finish or ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
