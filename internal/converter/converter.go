package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"dts-converter/internal/ffprobe"
	"dts-converter/internal/filesystem"
	"dts-converter/internal/jobs"
	"dts-converter/internal/logging"
	"dts-converter/internal/metrics"
	"dts-converter/internal/notify"
	"dts-converter/internal/transcoder"
)

const interruptedDetail = "interrupted by shutdown"

// Inspector answers questions about a media file.
type Inspector interface {
	HasVideo(ctx context.Context, path string) bool
	TargetAudioTracks(ctx context.Context, path string) ([]ffprobe.Track, error)
	Streams(ctx context.Context, path string) ([]ffprobe.Stream, error)
}

// Encoder runs an encode plan.
type Encoder interface {
	Encode(ctx context.Context, plan transcoder.Plan) transcoder.Result
}

// Config holds conversion settings.
type Config struct {
	TargetCodec string
	Retry       filesystem.RetryConfig
}

// Converter drives one job from Pending to a terminal state.
type Converter struct {
	registry  *jobs.Registry
	inspector Inspector
	encoder   Encoder
	notifier  notify.Notifier
	cfg       Config
	locks     *pathLocks
}

// New creates a Converter. A nil notifier disables notifications.
func New(registry *jobs.Registry, inspector Inspector, encoder Encoder, notifier notify.Notifier, cfg Config) *Converter {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if cfg.TargetCodec == "" {
		cfg.TargetCodec = "eac3"
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialBackoff == 0 {
		cfg.Retry = filesystem.DefaultRetryConfig()
	}
	return &Converter{
		registry:  registry,
		inspector: inspector,
		encoder:   encoder,
		notifier:  notifier,
		cfg:       cfg,
		locks:     newPathLocks(),
	}
}

// Run converts path on behalf of job id. It always leaves the job in a
// terminal state unless the job was already finished by someone else.
// Tasks for the same file run one at a time, whatever spelling of the path
// they were given; a waiting job stays Pending.
func (c *Converter) Run(ctx context.Context, id, path string) {
	unlock, err := c.locks.acquire(ctx, filesystem.Canonical(path))
	if err != nil {
		c.finish(ctx, id, path, jobs.StateInternalError, interruptedDetail)
		return
	}
	defer unlock()

	if err := c.registry.SetStatus(id, jobs.StateRunning); err != nil {
		logging.Error("Cannot start job %s: %v", id, err)
		return
	}

	metrics.JobsInProgress.Inc()
	defer metrics.JobsInProgress.Dec()

	logging.Info("Converting %s (job %s)", path, id)
	state, detail := c.convert(ctx, path)

	if ctx.Err() != nil && state != jobs.StateConversionSucceeded {
		state, detail = jobs.StateInternalError, interruptedDetail
	}
	c.finish(ctx, id, path, state, detail)
}

// convert runs the decision pipeline and returns the terminal state.
func (c *Converter) convert(ctx context.Context, path string) (state jobs.State, detail string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic converting %s: %v\n%s", path, r, debug.Stack())
			state, detail = jobs.StateInternalError, fmt.Sprintf("panic: %v", r)
		}
	}()

	if !c.inspector.HasVideo(ctx, path) {
		return jobs.StateNotAVideoFile, ""
	}

	tracks, err := c.inspector.TargetAudioTracks(ctx, path)
	if err != nil {
		logging.Warn("Listing audio tracks of %s failed: %v", path, err)
		return jobs.StateInternalError, err.Error()
	}
	if len(tracks) == 0 {
		return jobs.StateNoTargetTracks, ""
	}

	streams, err := c.inspector.Streams(ctx, path)
	if err != nil {
		logging.Warn("Listing streams of %s failed: %v", path, err)
		return jobs.StateInternalError, err.Error()
	}

	plan := transcoder.BuildPlan(path, streams, tracks, c.cfg.TargetCodec)
	logging.Debug("Plan for %s: %d of %d streams re-encoded to %s", path, plan.ConvertCount(), len(plan.Streams), plan.TargetCodec)

	result := c.encoder.Encode(ctx, plan)
	if !result.Success() {
		removeTemp(plan.Output)
		return jobs.StateConversionFailed, result.Diagnostic()
	}

	if err := filesystem.RenameWithRetry(plan.Output, path, c.cfg.Retry); err != nil {
		removeTemp(plan.Output)
		return jobs.StateInternalError, fmt.Sprintf("replace original: %v", err)
	}
	return jobs.StateConversionSucceeded, ""
}

// finish records the terminal state, updates metrics and fires exactly one
// notification.
func (c *Converter) finish(ctx context.Context, id, path string, state jobs.State, detail string) {
	job, err := c.registry.Finish(id, state, detail)
	if err != nil {
		if !errors.Is(err, jobs.ErrAlreadyFinished) {
			logging.Error("Cannot finish job %s: %v", id, err)
		}
		return
	}

	elapsed := time.Duration(0)
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	}
	metrics.JobsFinishedTotal.WithLabelValues(state.String()).Inc()
	metrics.JobDuration.WithLabelValues(state.String()).Observe(elapsed.Seconds())

	if state.Failed() {
		logging.Warn("Job %s for %s: %s", id, path, job.Status())
	} else {
		logging.Info("Job %s for %s: %s (%s)", id, path, job.Status(), jobs.FormatElapsed(elapsed))
	}

	if err := c.notifier.Notify(ctx, notify.Outcome(path, state, detail)); err != nil {
		logging.Warn("Notification for job %s failed: %v", id, err)
	}
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove temporary file %s: %v", path, err)
	}
}
