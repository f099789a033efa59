package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"podshelf/internal/config"
	"podshelf/internal/logging"
	"podshelf/internal/queue"
	"podshelf/internal/workflow"
)

// Daemon owns the scheduler lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	store     *queue.Store
	scheduler *workflow.Scheduler
	logger    *slog.Logger

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	stopMu  sync.Mutex
}

// New constructs a daemon around an existing scheduler.
func New(cfg *config.Config, store *queue.Store, scheduler *workflow.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || scheduler == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, scheduler, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "podshelf.lock")
	return &Daemon{
		cfg:       cfg,
		store:     store,
		scheduler: scheduler,
		logger:    logging.NewComponentLogger(logger, "daemon").With(logging.String(logging.FieldRunID, uuid.NewString())),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the scheduler loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another podshelf instance holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))

	go func() {
		defer close(d.done)
		if err := d.scheduler.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("scheduler exited", logging.Error(err))
		}
	}()
	return nil
}

// Stop cancels the scheduler, waits for it to exit, and releases the lock.
func (d *Daemon) Stop() {
	d.stopMu.Lock()
	defer d.stopMu.Unlock()
	if !d.running.Load() {
		return
	}

	d.cancel()
	<-d.done
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Running reports whether the scheduler loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
