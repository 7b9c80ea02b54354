package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "dts-converter/internal/errors"
	"dts-converter/internal/filesystem"
	"dts-converter/internal/jobs"
	"dts-converter/internal/workers"
)

// finishingRunner marks every job it runs as not a video.
type finishingRunner struct {
	registry *jobs.Registry
	mu       sync.Mutex
	paths    []string
}

func (r *finishingRunner) Run(_ context.Context, id, path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	_ = r.registry.SetStatus(id, jobs.StateRunning)
	_, _ = r.registry.Finish(id, jobs.StateNotAVideoFile, "")
}

func (r *finishingRunner) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.paths...)
	sort.Strings(out)
	return out
}

func newTestService(t *testing.T) (*Service, *jobs.Registry, *finishingRunner, *workers.Pool) {
	t.Helper()
	registry := jobs.NewRegistry()
	runner := &finishingRunner{registry: registry}
	pool := workers.NewPool(4)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})
	return New(registry, runner, pool, filesystem.DefaultRetryConfig()), registry, runner, pool
}

func waitTerminal(t *testing.T, registry *jobs.Registry, ids []string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for _, id := range ids {
		for {
			job, err := registry.Get(id)
			require.NoError(t, err)
			if job.State.IsTerminal() {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("job %s still %s", id, job.State)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	for _, path := range []string{"", "   "} {
		_, err := svc.Submit(path)
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	}
}

func TestSubmitMissingPath(t *testing.T) {
	svc, registry, _, _ := newTestService(t)

	_, err := svc.Submit(filepath.Join(t.TempDir(), "missing.mkv"))

	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Equal(t, 0, registry.Len(), "no job may be created for a missing path")
}

func TestSubmitFileUsesBaseName(t *testing.T) {
	svc, registry, runner, _ := newTestService(t)
	path := filepath.Join(filesystem.Canonical(t.TempDir()), "movie.mkv")
	touch(t, path)

	sub, err := svc.Submit(path)
	require.NoError(t, err)
	assert.False(t, sub.Directory)
	require.Len(t, sub.IDs, 1)

	job, err := registry.Get(sub.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "movie.mkv", job.Filename)

	waitTerminal(t, registry, sub.IDs)
	assert.Equal(t, []string{path}, runner.Paths())
}

func TestSubmitDirectoryFansOut(t *testing.T) {
	svc, registry, runner, _ := newTestService(t)
	root := filesystem.Canonical(t.TempDir())
	want := []string{
		filepath.Join(root, "a.mkv"),
		filepath.Join(root, "b.mkv"),
		filepath.Join(root, "season1", "e01.mkv"),
		filepath.Join(root, "season1", "e02.mkv"),
		filepath.Join(root, "season1", "extras", "notes.txt"),
	}
	for _, p := range want {
		touch(t, p)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	sub, err := svc.Submit(root)
	require.NoError(t, err)
	assert.True(t, sub.Directory)
	require.Len(t, sub.IDs, len(want))

	// Ids come back in walk order, which is lexical.
	for i, id := range sub.IDs {
		job, err := registry.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want[i], job.Filename)
	}

	waitTerminal(t, registry, sub.IDs)
	assert.Equal(t, want, runner.Paths())
}

func TestSubmitEmptyDirectory(t *testing.T) {
	svc, registry, _, _ := newTestService(t)

	sub, err := svc.Submit(t.TempDir())
	require.NoError(t, err)
	assert.True(t, sub.Directory)
	assert.Empty(t, sub.IDs)
	assert.Equal(t, 0, registry.Len())
}

func TestScheduleDirectoryFollowsFileSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	svc, registry, runner, _ := newTestService(t)
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.mkv")
	touch(t, target)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.mkv")))
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(root, "dirlink")))
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "broken")))

	ids, err := svc.ScheduleDirectory(root)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	waitTerminal(t, registry, ids)
	assert.Equal(t, []string{filesystem.Canonical(target)}, runner.Paths())
}

func TestSubmitPathAliasesResolveToOneFile(t *testing.T) {
	svc, registry, runner, _ := newTestService(t)
	dir := filesystem.Canonical(t.TempDir())
	path := filepath.Join(dir, "movie.mkv")
	touch(t, path)

	var ids []string
	for _, alias := range []string{path, dir + "//movie.mkv", dir + "/./movie.mkv"} {
		sub, err := svc.Submit(alias)
		require.NoError(t, err, alias)
		ids = append(ids, sub.IDs...)
	}

	waitTerminal(t, registry, ids)
	assert.Equal(t, []string{path, path, path}, runner.Paths())
}

func TestScheduleDirectorySkipsUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	svc, _, _, _ := newTestService(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "one.mkv"))
	touch(t, filepath.Join(root, "locked", "two.mkv"))
	touch(t, filepath.Join(root, "z", "three.mkv"))

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	ids, err := svc.ScheduleDirectory(root)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestSubmitAfterShutdown(t *testing.T) {
	svc, registry, _, pool := newTestService(t)
	path := filepath.Join(t.TempDir(), "movie.mkv")
	touch(t, path)

	require.NoError(t, pool.Shutdown(context.Background()))

	sub, err := svc.Submit(path)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
	assert.Empty(t, sub.IDs)

	all := registry.List()
	require.Len(t, all, 1)
	assert.Equal(t, jobs.StateInternalError, all[0].State)
	assert.NotNil(t, all[0].EndTime)
}

func TestConcurrentSubmissions(t *testing.T) {
	svc, registry, runner, _ := newTestService(t)
	dir := filesystem.Canonical(t.TempDir())

	const n = 50
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("file%02d.mkv", i))
		touch(t, paths[i])
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []string
	)
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			sub, err := svc.Submit(p)
			assert.NoError(t, err)
			mu.Lock()
			ids = append(ids, sub.IDs...)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	require.Len(t, ids, n)
	seen := make(map[string]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	waitTerminal(t, registry, ids)
	assert.Equal(t, n, registry.Len())
	assert.Equal(t, paths, runner.Paths())
	assert.Equal(t, n, registry.StateCounts()[jobs.StateNotAVideoFile.String()])
}
