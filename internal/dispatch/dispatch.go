package dispatch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domainerrors "dts-converter/internal/errors"
	"dts-converter/internal/filesystem"
	"dts-converter/internal/jobs"
	"dts-converter/internal/logging"
	"dts-converter/internal/metrics"
	"dts-converter/internal/workers"
)

// Runner executes one job.
type Runner interface {
	Run(ctx context.Context, id, path string)
}

// Scheduler runs tasks in the background.
type Scheduler interface {
	Go(task workers.Task) error
}

// Submission is the result of accepting a path.
type Submission struct {
	Directory bool
	IDs       []string
}

// Service turns submitted paths into scheduled jobs.
type Service struct {
	registry *jobs.Registry
	runner   Runner
	pool     Scheduler
	retry    filesystem.RetryConfig
}

// New creates a Service.
func New(registry *jobs.Registry, runner Runner, pool Scheduler, retry filesystem.RetryConfig) *Service {
	return &Service{
		registry: registry,
		runner:   runner,
		pool:     pool,
		retry:    retry,
	}
}

// Submit validates path and schedules one job for a file, or one job per
// regular file below a directory. It returns before any conversion starts.
func (s *Service) Submit(path string) (Submission, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Submission{}, domainerrors.Validation("path is required")
	}

	info, err := filesystem.StatWithRetry(path, s.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return Submission{}, domainerrors.NotFoundf("path not found: %s", path)
		}
		return Submission{}, domainerrors.Internal("cannot access path", err)
	}

	if info.IsDir() {
		ids, err := s.ScheduleDirectory(path)
		return Submission{Directory: true, IDs: ids}, err
	}

	id, err := s.SubmitFile(path, filepath.Base(path))
	if err != nil {
		return Submission{}, err
	}
	return Submission{IDs: []string{id}}, nil
}

// SubmitFile creates a job labelled name and schedules the conversion of
// path. The runner receives the canonical form of path.
func (s *Service) SubmitFile(path, name string) (string, error) {
	job := s.registry.Create(name)
	if err := s.schedule(job.ID, filesystem.Canonical(path)); err != nil {
		return job.ID, err
	}
	metrics.JobsSubmittedTotal.WithLabelValues("file").Inc()
	return job.ID, nil
}

// ScheduleDirectory walks root and schedules one job per regular file,
// including symlinks that resolve to regular files. Job ids are returned in
// walk order. Unreadable directories are logged and skipped, root
// included, so an unreadable root yields no jobs.
func (s *Service) ScheduleDirectory(root string) ([]string, error) {
	var ids []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			metrics.DirectoryWalkErrors.Inc()
			logging.Warn("Skipping %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !isRegular(path, d) {
			return nil
		}

		job := s.registry.Create(path)
		ids = append(ids, job.ID)
		if err := s.schedule(job.ID, filesystem.Canonical(path)); err != nil {
			return err
		}
		metrics.JobsSubmittedTotal.WithLabelValues("directory").Inc()
		return nil
	})
	if err != nil {
		return ids, err
	}

	logging.Info("Scheduled %d conversions under %s", len(ids), root)
	return ids, nil
}

func (s *Service) schedule(id, path string) error {
	err := s.pool.Go(func(ctx context.Context) {
		s.runner.Run(ctx, id, path)
	})
	if err == nil {
		return nil
	}

	if _, finishErr := s.registry.Finish(id, jobs.StateInternalError, "not scheduled: "+err.Error()); finishErr != nil {
		logging.Error("Cannot finish unscheduled job %s: %v", id, finishErr)
	}
	if errors.Is(err, workers.ErrPoolClosed) {
		return domainerrors.Unavailable("server is shutting down").WithCause(err)
	}
	return domainerrors.Internal("cannot schedule conversion", err)
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
