package jobs

import (
	"fmt"
	"time"
)

// TimeLayout is the wall-clock format used for start and end times.
const TimeLayout = "2006-01-02 15:04:05"

// Job is a value snapshot of one tracked conversion.
type Job struct {
	ID        string
	Filename  string
	StartTime time.Time
	EndTime   *time.Time
	State     State
	// Detail carries the diagnostic text of a failure state.
	Detail string
}

// Status renders State and Detail as the display string.
func (j Job) Status() string {
	if j.Detail == "" {
		return j.State.Label()
	}
	return j.State.Label() + ": " + j.Detail
}

// Elapsed returns the time between StartTime and EndTime, or now while the
// job is still open.
func (j Job) Elapsed(now time.Time) time.Duration {
	end := now
	if j.EndTime != nil {
		end = *j.EndTime
	}
	d := end.Sub(j.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// FormatElapsed renders d as "HHh MMmin SSsec", truncated to whole seconds.
// Hours are not wrapped at 24.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02dh %02dmin %02dsec", hours, minutes, seconds)
}
