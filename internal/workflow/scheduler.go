package workflow

import (
	"context"
	"log/slog"
	"time"

	"podshelf/internal/config"
	"podshelf/internal/logging"
	"podshelf/internal/queue"
)

// Scheduler drives the pipeline: each cycle sweeps eligible failed episodes
// back to pending, then drains the pending queue. Failed episodes are swept
// on their own cadence so a broken upstream is not hammered every poll, and
// episodes whose retry budget is exhausted stay failed.
type Scheduler struct {
	cfg      *config.Config
	store    *queue.Store
	pipeline *Pipeline
	logger   *slog.Logger

	pollInterval       time.Duration
	errorRetryInterval time.Duration
	retryInterval      time.Duration
	maxRetries         int

	lastSweep time.Time
}

// NewScheduler builds a scheduler around an existing pipeline. A
// non-positive retry interval sweeps failed episodes on every cycle.
func NewScheduler(cfg *config.Config, store *queue.Store, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	poll := time.Duration(cfg.Workflow.PollInterval) * time.Second
	if poll <= 0 {
		poll = 10 * time.Second
	}
	errRetry := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if errRetry <= 0 {
		errRetry = poll
	}
	return &Scheduler{
		cfg:                cfg,
		store:              store,
		pipeline:           pipeline,
		logger:             logging.NewComponentLogger(logger, "scheduler"),
		pollInterval:       poll,
		errorRetryInterval: errRetry,
		retryInterval:      time.Duration(cfg.Workflow.RetryInterval) * time.Second,
		maxRetries:         cfg.Workflow.MaxRetries,
	}
}

// CycleResult reports one scheduler pass.
type CycleResult struct {
	Retried   int64
	Processed int
}

// Cycle runs a single sweep-and-drain pass. The failed-episode sweep only
// runs when the retry interval has elapsed since the last one.
func (s *Scheduler) Cycle(ctx context.Context) (CycleResult, error) {
	var result CycleResult

	if s.sweepDue() {
		retried, err := s.store.RetryFailed(ctx, s.maxRetries)
		if err != nil {
			return result, err
		}
		s.lastSweep = time.Now()
		result.Retried = retried
		if retried > 0 {
			s.logger.Info("moved failed episodes back to pending",
				logging.Int64("count", retried))
		}
	}

	processed, err := s.pipeline.ProcessPending(ctx, 0)
	result.Processed = processed
	return result, err
}

func (s *Scheduler) sweepDue() bool {
	if s.retryInterval <= 0 || s.lastSweep.IsZero() {
		return true
	}
	return time.Since(s.lastSweep) >= s.retryInterval
}

// cycleDelay picks the sleep before the next cycle. A failed cycle backs
// off on the error interval instead of the normal poll cadence.
func (s *Scheduler) cycleDelay(cycleErr error) time.Duration {
	if cycleErr != nil {
		return s.errorRetryInterval
	}
	return s.pollInterval
}

// Drain runs cycles until the queue has no pending or processing episodes
// and a cycle moves nothing. Suited to one-shot batch invocations.
func (s *Scheduler) Drain(ctx context.Context) error {
	for {
		result, err := s.Cycle(ctx)
		if err != nil {
			return err
		}
		summary, err := s.store.Stats(ctx)
		if err != nil {
			return err
		}
		if summary.Pending == 0 && summary.Processing == 0 && result.Retried == 0 && result.Processed == 0 {
			s.logger.Info("queue drained",
				logging.Int("completed", summary.Completed),
				logging.Int("failed", summary.Failed))
			return nil
		}
	}
}

// Run loops until the context is cancelled, sleeping between cycles. Stuck
// processing rows from a previous crash are reset once on startup without
// consuming a retry.
func (s *Scheduler) Run(ctx context.Context) error {
	reset, err := s.store.ResetStuckProcessing(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		s.logger.Warn("reset stuck processing episodes",
			logging.Int64("count", reset))
	}

	for {
		_, cycleErr := s.Cycle(ctx)
		if cycleErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scheduler cycle failed", logging.Error(cycleErr))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cycleDelay(cycleErr)):
		}
	}
}
