package jobs

import (
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "00h 00min 00sec"},
		{name: "two hours five minutes nine seconds", d: 2*time.Hour + 5*time.Minute + 9*time.Second, want: "02h 05min 09sec"},
		{name: "sub-second truncated", d: 59*time.Second + 999*time.Millisecond, want: "00h 00min 59sec"},
		{name: "over a day", d: 30 * time.Hour, want: "30h 00min 00sec"},
		{name: "three digit hours", d: 123*time.Hour + time.Minute, want: "123h 01min 00sec"},
		{name: "negative clamps to zero", d: -5 * time.Second, want: "00h 00min 00sec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatElapsed(tt.d); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestJobElapsed(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(2*time.Hour + 5*time.Minute + 9*time.Second)
	now := start.Add(10 * time.Hour)

	open := Job{StartTime: start}
	if got := open.Elapsed(now); got != 10*time.Hour {
		t.Errorf("open job Elapsed = %v, want 10h", got)
	}

	closed := Job{StartTime: start, EndTime: &end}
	if got := FormatElapsed(closed.Elapsed(now)); got != "02h 05min 09sec" {
		t.Errorf("closed job elapsed = %q, want 02h 05min 09sec", got)
	}
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		job  Job
		want string
	}{
		{Job{State: StatePending}, "Pending"},
		{Job{State: StateRunning}, "Running"},
		{Job{State: StateNotAVideoFile}, "Failed - Not a video file"},
		{Job{State: StateNoTargetTracks}, "Done - No track to convert"},
		{Job{State: StateConversionSucceeded}, "Done - Conversion succeeded"},
		{Job{State: StateConversionFailed, Detail: "Invalid data found"}, "Conversion failed: Invalid data found"},
		{Job{State: StateInternalError, Detail: "permission denied"}, "Error: permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.job.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range AllStates {
		want := s != StatePending && s != StateRunning
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
	if len(StateNames()) != len(AllStates) {
		t.Errorf("StateNames() length mismatch")
	}
}
