package workers

import (
	"runtime"
	"testing"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name   string
		procs  int
		perCPU float64
		limit  int
		want   int
	}{
		{"one per CPU", 8, 1, 0, 8},
		{"two per CPU", 4, 2, 0, 8},
		{"capped", 16, 1, 4, 4},
		{"below cap", 2, 1, 4, 2},
		{"fraction rounds down", 3, 0.5, 0, 1},
		{"never below one", 1, 0.1, 0, 1},
		{"zero procs", 0, 1, 0, 1},
		{"cap of one", 32, 2, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scale(tt.procs, tt.perCPU, tt.limit); got != tt.want {
				t.Errorf("scale(%d, %v, %d) = %d, want %d", tt.procs, tt.perCPU, tt.limit, got, tt.want)
			}
		})
	}
}

func TestForCPU(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	if got := ForCPU(0); got != procs {
		t.Errorf("ForCPU(0) = %d, want GOMAXPROCS %d", got, procs)
	}
	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := Count(2, 0); got != 2*procs {
		t.Errorf("Count(2, 0) = %d, want %d", got, 2*procs)
	}
}
