package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"overdub/internal/download"
	"overdub/internal/logging"
	"overdub/internal/queue"
	"overdub/internal/separate"
	"overdub/internal/services"
	"overdub/internal/stretch"
)

// Downloader fetches audio for download jobs.
type Downloader interface {
	Fetch(ctx context.Context, req download.Request) (download.Result, error)
}

// Stretcher retimes audio for stretch jobs.
type Stretcher interface {
	Adjust(ctx context.Context, req stretch.Request) (stretch.Result, error)
}

// Separator splits audio for separate jobs.
type Separator interface {
	Separate(ctx context.Context, input, outputDir string) (separate.Result, error)
}

// Options tunes the worker loop.
type Options struct {
	// LockPath guards against two workers sharing one queue.
	LockPath string
	// PollInterval is the delay between queue checks in watch mode.
	PollInterval time.Duration
	// Watch keeps the worker polling after the queue drains instead
	// of exiting.
	Watch bool
}

// Worker drains the job queue one job at a time. Jobs run strictly
// sequentially; each external tool gets the machine to itself.
type Worker struct {
	store      *queue.Store
	downloader Downloader
	stretcher  Stretcher
	separator  Separator
	opts       Options
	lock       *flock.Flock
	logger     *slog.Logger
}

// New constructs a worker over the given store and services.
func New(store *queue.Store, dl Downloader, st Stretcher, sep Separator, opts Options, logger *slog.Logger) (*Worker, error) {
	if store == nil {
		return nil, errors.New("worker requires a queue store")
	}
	if opts.LockPath == "" {
		opts.LockPath = filepath.Join(filepath.Dir(store.Path()), "worker.lock")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	return &Worker{
		store:      store,
		downloader: dl,
		stretcher:  st,
		separator:  sep,
		opts:       opts,
		lock:       flock.New(opts.LockPath),
		logger:     logging.NewComponentLogger(logger, "worker"),
	}, nil
}

// Run processes pending jobs until the queue drains (or indefinitely in
// watch mode) or the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire worker lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another worker already holds %s", w.opts.LockPath)
	}
	defer func() { _ = w.lock.Unlock() }()

	if reset, err := w.store.ResetStale(ctx); err != nil {
		return fmt.Errorf("reset stale jobs: %w", err)
	} else if reset > 0 {
		w.logger.Warn("reset jobs stranded by a previous run", logging.Int64("count", reset))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, err := w.store.NextPending(ctx)
		if err != nil {
			return fmt.Errorf("fetch next job: %w", err)
		}
		if job == nil {
			if !w.opts.Watch {
				w.logger.Info("queue drained")
				return nil
			}
			select {
			case <-time.After(w.opts.PollInterval):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) {
	correlationID := uuid.NewString()
	jobCtx := services.WithRequestID(services.WithJobID(ctx, job.ID), correlationID)
	jobCtx = services.WithStage(jobCtx, string(job.Kind))

	logger := w.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldCorrelationID, correlationID),
		logging.String("kind", string(job.Kind)),
	)
	logger.Info("job started", logging.String("source", job.Source))

	job.Status = queue.StatusRunning
	job.ErrorMessage = ""
	if err := w.store.Update(jobCtx, job); err != nil {
		logger.Error("failed to mark job running", logging.Error(err))
		return
	}

	start := time.Now()
	err := w.dispatch(jobCtx, job)

	if err != nil {
		job.Status = queue.StatusFailed
		job.ErrorMessage = err.Error()
		logger.Error("job failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(start)),
		)
	} else {
		job.Status = queue.StatusCompleted
		logger.Info("job completed",
			logging.String("output", job.Output),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
	if updateErr := w.store.Update(jobCtx, job); updateErr != nil {
		logger.Error("failed to record job result", logging.Error(updateErr))
	}
}

func (w *Worker) dispatch(ctx context.Context, job *queue.Job) error {
	switch job.Kind {
	case queue.KindDownload:
		if w.downloader == nil {
			return fmt.Errorf("download jobs: %w", services.ErrUnavailable)
		}
		result, err := w.downloader.Fetch(ctx, download.Request{URL: job.Source, Output: job.Output})
		if err != nil {
			return err
		}
		job.Output = result.OutputPath
		return nil
	case queue.KindStretch:
		if w.stretcher == nil {
			return fmt.Errorf("stretch jobs: %w", services.ErrUnavailable)
		}
		output := job.Output
		if output == "" {
			output = derivedOutput(job.Source, ".stretched")
			job.Output = output
		}
		_, err := w.stretcher.Adjust(ctx, stretch.Request{
			Input:         job.Source,
			TargetSeconds: job.TargetSeconds,
			Output:        output,
		})
		return err
	case queue.KindSeparate:
		if w.separator == nil {
			return fmt.Errorf("separate jobs: %w", services.ErrUnavailable)
		}
		outputDir := job.Output
		if outputDir == "" {
			outputDir = filepath.Join(filepath.Dir(job.Source), "stems")
			job.Output = outputDir
		}
		_, err := w.separator.Separate(ctx, job.Source, outputDir)
		return err
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func derivedOutput(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}
