package workers

import "runtime"

// Count sizes a pool as perCPU workers per available CPU, capped at limit
// (0 means no cap) and never below one. Available CPUs come from GOMAXPROCS,
// which Go derives from the container CPU quota.
func Count(perCPU float64, limit int) int {
	return scale(runtime.GOMAXPROCS(0), perCPU, limit)
}

// ForCPU sizes a pool for CPU-bound work such as audio encodes: one worker
// per CPU.
func ForCPU(limit int) int {
	return Count(1, limit)
}

func scale(procs int, perCPU float64, limit int) int {
	n := max(int(float64(procs)*perCPU), 1)
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}
