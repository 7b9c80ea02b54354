package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	counts map[string]int
}

func (m *mockStatsProvider) StateCounts() map[string]int {
	return m.counts
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{counts: map[string]int{
		"pending":              3,
		"running":              2,
		"conversion_succeeded": 7,
	}}

	c := NewCollector(provider, time.Hour)
	c.collect()

	tests := []struct {
		state string
		want  float64
	}{
		{"pending", 3},
		{"running", 2},
		{"conversion_succeeded", 7},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := testutil.ToFloat64(JobsByState.WithLabelValues(tt.state))
			if got != tt.want {
				t.Errorf("JobsByState[%s] = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() with nil provider panicked: %v", r)
		}
	}()
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{counts: map[string]int{"running": 1}}
	c := NewCollector(provider, time.Hour)
	c.Start()
	c.Stop()

	// The first collection runs before the loop checks for Stop.
	if got := testutil.ToFloat64(JobsByState.WithLabelValues("running")); got != 1 {
		t.Errorf("JobsByState[running] = %v, want 1", got)
	}

	// A second Stop returns immediately.
	c.Stop()
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics([]string{"pending", "running"})

	if got := testutil.ToFloat64(JobsFinishedTotal.WithLabelValues("pending")); got != 0 {
		t.Errorf("pre-populated counter should start at 0, got %v", got)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}
