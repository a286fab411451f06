// Package worker schedules recurring ingestion runs across the configured
// sources.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/source"
)

// Runner executes one ingestion run. *ingest.Pipeline satisfies it.
type Runner interface {
	RunOnce(ctx context.Context, src source.Source, opts source.Options) (jobs.RunRecord, error)
}

// Config controls Worker behavior.
type Config struct {
	// Interval between sweeps over all sources.
	Interval time.Duration
	// Options is the run budget for targets that set no budget of their own.
	Options source.Options
}

// Target pairs a source with its own run options. Zero option fields fall
// back to the worker defaults.
type Target struct {
	Source  source.Source
	Options source.Options
}

// Worker drives the pipeline over every registered source, sequentially,
// on a fixed interval. Sources stay sequential so one deployment never
// hammers several sites at once.
type Worker struct {
	cfg     Config
	runner  Runner
	targets []Target
	logger  *zap.Logger
}

// New constructs a Worker.
func New(cfg Config, runner Runner, targets []Target, logger *zap.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		cfg:     cfg,
		runner:  runner,
		targets: targets,
		logger:  logger,
	}
}

// options resolves the budget for one target: its own values win, the
// worker defaults fill the rest.
func (w *Worker) options(t Target) source.Options {
	opts := t.Options
	if opts.MaxItems <= 0 {
		opts.MaxItems = w.cfg.Options.MaxItems
	}
	if opts.MaxDetailFetch <= 0 {
		opts.MaxDetailFetch = w.cfg.Options.MaxDetailFetch
	}
	return opts
}

// Sweep runs every source once. When filter is non-empty only the source
// with that name runs. The first run error is returned after all sources
// have been attempted.
func (w *Worker) Sweep(ctx context.Context, filter string) error {
	var firstErr error
	matched := false
	for _, t := range w.targets {
		src := t.Source
		if filter != "" && src.Name() != filter {
			continue
		}
		matched = true
		if err := ctx.Err(); err != nil {
			return err
		}
		run, err := w.runner.RunOnce(ctx, src, w.options(t))
		if err != nil {
			w.logger.Error("ingestion run failed",
				zap.String("source", src.Name()),
				zap.String("run_id", run.ID.String()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		w.logger.Info("ingestion run complete",
			zap.String("source", src.Name()),
			zap.String("run_id", run.ID.String()),
			zap.Int("fetched", run.Counters.Fetched),
			zap.Int("indexed", run.Counters.Indexed),
			zap.Int("duplicates", run.Counters.Duplicates),
			zap.Int("errors", run.Counters.Errors))
	}
	if filter != "" && !matched {
		return fmt.Errorf("no source named %q", filter)
	}
	return firstErr
}

// Run sweeps immediately, then on every interval tick until ctx finishes.
// Sweep errors are logged and the loop keeps going.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("ingestion worker started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Int("sources", len(w.targets)))

	if err := w.Sweep(ctx, ""); err != nil && ctx.Err() == nil {
		w.logger.Warn("sweep finished with errors", zap.Error(err))
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ingestion worker stopped")
			return
		case <-ticker.C:
			if err := w.Sweep(ctx, ""); err != nil && ctx.Err() == nil {
				w.logger.Warn("sweep finished with errors", zap.Error(err))
			}
		}
	}
}
