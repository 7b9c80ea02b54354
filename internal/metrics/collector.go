package metrics

import (
	"sync"
	"time"

	"dts-converter/internal/logging"
)

// StatsProvider reports the number of jobs per state.
type StatsProvider interface {
	StateCounts() map[string]int
}

// Collector periodically copies registry counts into the JobsByState gauge.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start collects once immediately, then every interval until Stop.
func (c *Collector) Start() {
	go c.loop()
}

// Stop ends the loop started by Start and waits for it to exit. Later calls
// return immediately.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Collector) loop() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect()
		select {
		case <-ticker.C:
		case <-c.stop:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	total := 0
	for state, n := range c.provider.StateCounts() {
		JobsByState.WithLabelValues(state).Set(float64(n))
		total += n
	}
	logging.Debug("Metrics collected: jobs=%d", total)
}
