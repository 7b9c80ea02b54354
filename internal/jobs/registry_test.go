package jobs

import (
	"fmt"
	"sync"
	"testing"
	"time"

	domainerrors "dts-converter/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry() (*Registry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	return NewRegistry(WithClock(clock.Now)), clock
}

func TestRegistryCreate(t *testing.T) {
	reg, clock := newTestRegistry()

	job := reg.Create("movie.mkv")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "movie.mkv", job.Filename)
	assert.Equal(t, StatePending, job.State)
	assert.Equal(t, clock.Now(), job.StartTime)
	assert.Nil(t, job.EndTime)
	assert.Equal(t, "Pending", job.Status())

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestRegistryIDsAreUnique(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		job := reg.Create(fmt.Sprintf("file-%d.mkv", i))
		require.False(t, seen[job.ID], "duplicate id %s", job.ID)
		seen[job.ID] = true
	}
	assert.Equal(t, 1000, reg.Len())
}

func TestRegistryRegeneratesCollidingIDs(t *testing.T) {
	ids := []string{"a", "a", "b"}
	next := 0
	reg := NewRegistry(WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))

	first := reg.Create("one.mkv")
	second := reg.Create("two.mkv")

	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
}

func TestRegistryGetUnknownID(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	assert.ErrorIs(t, reg.SetStatus("does-not-exist", StateRunning), ErrNotFound)
	_, err = reg.Finish("does-not-exist", StateInternalError, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryLifecycle(t *testing.T) {
	reg, clock := newTestRegistry()
	job := reg.Create("/media/movie.mkv")

	require.NoError(t, reg.SetStatus(job.ID, StateRunning))
	running, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, running.State)
	assert.Nil(t, running.EndTime)

	clock.Advance(2*time.Hour + 5*time.Minute + 9*time.Second)
	done, err := reg.Finish(job.ID, StateConversionFailed, "exit status 1")
	require.NoError(t, err)

	require.NotNil(t, done.EndTime)
	assert.Equal(t, clock.Now(), *done.EndTime)
	assert.Equal(t, "Conversion failed: exit status 1", done.Status())
	assert.Equal(t, "02h 05min 09sec", FormatElapsed(done.Elapsed(clock.Now().Add(time.Hour))))
}

func TestRegistryFinishIsExactlyOnce(t *testing.T) {
	reg := NewRegistry()
	job := reg.Create("movie.mkv")
	require.NoError(t, reg.SetStatus(job.ID, StateRunning))

	first, err := reg.Finish(job.ID, StateConversionSucceeded, "")
	require.NoError(t, err)

	_, err = reg.Finish(job.ID, StateInternalError, "late")
	assert.ErrorIs(t, err, ErrAlreadyFinished)

	assert.ErrorIs(t, reg.SetStatus(job.ID, StateRunning), ErrAlreadyFinished)

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateConversionSucceeded, got.State)
	assert.Equal(t, *first.EndTime, *got.EndTime)
}

func TestRegistryRejectsInvalidTransitions(t *testing.T) {
	reg := NewRegistry()
	job := reg.Create("movie.mkv")

	assert.ErrorIs(t, reg.SetStatus(job.ID, StateConversionSucceeded), ErrInvalidTransition)

	_, err := reg.Finish(job.ID, StateRunning, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, reg.SetStatus(job.ID, StateRunning))
	assert.ErrorIs(t, reg.SetStatus(job.ID, StatePending), ErrInvalidTransition)
}

func TestRegistrySnapshotsAreIsolated(t *testing.T) {
	reg := NewRegistry()
	job := reg.Create("movie.mkv")
	done, err := reg.Finish(job.ID, StateNotAVideoFile, "")
	require.NoError(t, err)

	*done.EndTime = done.EndTime.Add(time.Hour)

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.NotEqual(t, *done.EndTime, *got.EndTime)
}

func TestRegistryListPreservesCreationOrder(t *testing.T) {
	reg := NewRegistry()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, reg.Create(fmt.Sprintf("%d.mkv", i)).ID)
	}

	list := reg.List()
	require.Len(t, list, 5)
	for i, job := range list {
		assert.Equal(t, ids[i], job.ID)
	}
}

func TestRegistryStateCounts(t *testing.T) {
	reg := NewRegistry()
	a := reg.Create("a.mkv")
	b := reg.Create("b.mkv")
	reg.Create("c.mkv")
	require.NoError(t, reg.SetStatus(a.ID, StateRunning))
	_, err := reg.Finish(b.ID, StateNoTargetTracks, "")
	require.NoError(t, err)

	counts := reg.StateCounts()
	assert.Len(t, counts, len(AllStates))
	assert.Equal(t, 1, counts["pending"])
	assert.Equal(t, 1, counts["running"])
	assert.Equal(t, 1, counts["no_target_tracks_found"])
	assert.Equal(t, 0, counts["conversion_succeeded"])
}

// Writers own disjoint jobs while readers list continuously; every snapshot
// must satisfy end time set iff terminal.
func TestRegistryConcurrentWritersAndReaders(t *testing.T) {
	reg := NewRegistry()
	const n = 50

	ids := make([]string, n)
	for i := range ids {
		ids[i] = reg.Create(fmt.Sprintf("%d.mkv", i)).ID
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	violations := make(chan string, 1)
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, job := range reg.List() {
					if job.State.IsTerminal() != (job.EndTime != nil) {
						select {
						case violations <- job.ID:
						default:
						}
					}
				}
			}
		}()
	}

	var writers sync.WaitGroup
	for i, id := range ids {
		writers.Add(1)
		go func(i int, id string) {
			defer writers.Done()
			if err := reg.SetStatus(id, StateRunning); err != nil {
				t.Errorf("SetStatus: %v", err)
				return
			}
			state := StateConversionSucceeded
			if i%2 == 0 {
				state = StateConversionFailed
			}
			if _, err := reg.Finish(id, state, ""); err != nil {
				t.Errorf("Finish: %v", err)
			}
		}(i, id)
	}
	writers.Wait()
	close(stop)
	readers.Wait()

	select {
	case id := <-violations:
		t.Fatalf("job %s observed with inconsistent end time", id)
	default:
	}

	list := reg.List()
	require.Len(t, list, n)
	for _, job := range list {
		assert.True(t, job.State.IsTerminal())
		assert.NotNil(t, job.EndTime)
	}
}
