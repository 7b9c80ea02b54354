package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	operations []string
	attempts   int
	failures   int
}

func (r *recordingObserver) ObserveOperation(operation string, _ float64) {
	r.operations = append(r.operations, operation)
}

func (r *recordingObserver) ObserveRetryAttempt(string) { r.attempts++ }

func (r *recordingObserver) ObserveRetryFailure(string) { r.failures++ }

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	t.Run("recovers after stale errors", func(t *testing.T) {
		calls := 0
		err := withRetry("stat", "/nfs/movie.mkv", fastRetryConfig(), func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("stat: %w", syscall.ESTALE)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("withRetry() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("non-stale error returned immediately", func(t *testing.T) {
		calls := 0
		err := withRetry("stat", "/nfs/missing.mkv", fastRetryConfig(), func() error {
			calls++
			return os.ErrNotExist
		})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("err = %v, want ErrNotExist", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		failuresBefore := obs.failures
		calls := 0
		err := withRetry("rename", "/nfs/movie.mkv", fastRetryConfig(), func() error {
			calls++
			return syscall.ESTALE
		})
		if !errors.Is(err, syscall.ESTALE) {
			t.Errorf("err = %v, want ESTALE", err)
		}
		if calls != 4 {
			t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls)
		}
		if obs.failures != failuresBefore+1 {
			t.Errorf("failures = %d, want %d", obs.failures, failuresBefore+1)
		}
	})

	if len(obs.operations) != 3 {
		t.Errorf("observed operations = %d, want 3", len(obs.operations))
	}
}

func TestStatWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Size() = %d, want 4", info.Size())
	}

	_, err = StatWithRetry(filepath.Join(dir, "missing.mkv"), fastRetryConfig())
	if !os.IsNotExist(err) {
		t.Errorf("missing file error = %v, want not-exist", err)
	}
}

func TestRenameWithRetryReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "movie.mkv")
	converted := filepath.Join(dir, "movie_eac3.mkv")
	if err := os.WriteFile(original, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(converted, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RenameWithRetry(converted, original, fastRetryConfig()); err != nil {
		t.Fatalf("RenameWithRetry() error = %v", err)
	}

	data, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("original content = %q, want %q", data, "new")
	}
	if _, err := os.Stat(converted); !os.IsNotExist(err) {
		t.Errorf("temp file should be gone, stat err = %v", err)
	}
}

func TestCanonical(t *testing.T) {
	dir := Canonical(t.TempDir())
	file := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.mkv")
	if err := os.Symlink(file, link); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", file, file},
		{"dot segment", dir + "/./movie.mkv", file},
		{"double slash", dir + "//movie.mkv", file},
		{"parent segment", dir + "/sub/../movie.mkv", file},
		{"symlink", link, file},
		{"missing file keeps cleaned absolute path", dir + "/./gone.mkv", filepath.Join(dir, "gone.mkv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalRelative(t *testing.T) {
	dir := Canonical(t.TempDir())
	if err := os.WriteFile(filepath.Join(dir, "movie.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if got, want := Canonical("movie.mkv"), filepath.Join(dir, "movie.mkv"); got != want {
		t.Errorf("Canonical(relative) = %q, want %q", got, want)
	}
}
