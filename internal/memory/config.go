package memory

import (
	"math"
	"runtime/debug"
	"strconv"

	"dts-converter/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go heap.
// Encodes run in ffmpeg child processes, which need the rest.
const DefaultMemoryRatio = 0.25

// Source values reported in Limits.
const (
	SourceGoMemLimit  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
	SourceNone        = "none"
)

// Limits describes the memory limit applied to the process.
type Limits struct {
	// Source is one of the Source constants.
	Source string

	// ContainerLimit is MEMORY_LIMIT in bytes, 0 when unset.
	ContainerLimit int64

	// GoMemLimit is the applied soft limit in bytes, 0 when none was set.
	GoMemLimit int64

	Ratio float64
}

// Configured reports whether a soft limit is in effect.
func (l Limits) Configured() bool {
	return l.GoMemLimit > 0
}

// Configure applies a Go soft memory limit derived from the environment:
//   - GOMEMLIMIT: honoured as is; the runtime has already applied it
//   - MEMORY_LIMIT: container limit in bytes, e.g. from the Kubernetes Downward API
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the Go heap (default 0.25)
//
// Call it early in main, before significant allocations.
func Configure(getenv func(string) string) Limits {
	if v := getenv("GOMEMLIMIT"); v != "" {
		limits := Limits{Source: SourceGoMemLimit}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limits.GoMemLimit = current
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return limits
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT unset")
		return Limits{Source: SourceNone}
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return Limits{Source: SourceNone}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		FormatBytes(goMemLimit), ratio*100, FormatBytes(containerLimit))

	return Limits{
		Source:         SourceMemoryLimit,
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func parseRatio(raw string) float64 {
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q must be in (0, 1], using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// FormatBytes renders b with a binary unit suffix.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
