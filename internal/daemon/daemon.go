// Package daemon drives steady-state operation: it ties the debounced
// watcher and the retry backoff together around the processing pipeline.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/kelno/audio-journal-transcriber/internal/config"
	"github.com/kelno/audio-journal-transcriber/internal/jobs"
	"github.com/kelno/audio-journal-transcriber/internal/logging"
	"github.com/kelno/audio-journal-transcriber/internal/retry"
	"github.com/kelno/audio-journal-transcriber/internal/services"
	"github.com/kelno/audio-journal-transcriber/internal/watcher"
)

// lockFilename guards against two daemons processing the same store.
const lockFilename = ".transcriber.lock"

// Processor runs one full gather, resolve, and execute pass.
type Processor interface {
	Run(ctx context.Context) (*jobs.Result, error)
}

// Daemon owns the watcher, the retry loop, and the shared unprocessed list.
type Daemon struct {
	cfg       *config.Config
	processor Processor
	logger    *slog.Logger
	backoff   *retry.Manager

	mu          sync.Mutex
	unprocessed []jobs.BundleJobs
}

// New builds a daemon around a processor. Each daemon gets a run id so
// overlapping log output from restarts stays distinguishable.
func New(cfg *config.Config, processor Processor, logger *slog.Logger) *Daemon {
	runID := uuid.NewString()[:8]
	daemonLogger := logging.WithComponent(logger, "daemon").With(logging.String("run_id", runID))
	return &Daemon{
		cfg:       cfg,
		processor: processor,
		logger:    daemonLogger,
		backoff: retry.NewManager(
			secondsToDuration(cfg.Daemon.RetryInitialSeconds),
			secondsToDuration(cfg.Daemon.RetryMaxSeconds),
		),
	}
}

// Run processes everything currently pending, then watches the input tree
// and retries failed bundles with exponential backoff until ctx is
// cancelled. The watcher is stopped before Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	lock := flock.New(filepath.Join(d.cfg.Paths.StoreDir, lockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return services.Wrap(services.ErrConfiguration, "daemon", "lock",
			"another instance is already processing this store", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	d.logger.Info("daemon starting",
		logging.String("input", d.cfg.Paths.InputDir),
		logging.String("store", d.cfg.Paths.StoreDir))

	// Process whatever accumulated while the daemon was down.
	d.onChange(ctx)

	stableDelay := secondsToDuration(d.cfg.Daemon.StableDelaySeconds)
	w, err := watcher.New(d.cfg.Paths.InputDir, stableDelay, func() { d.onChange(ctx) }, d.logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	for {
		delay := d.currentDelay()
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping")
			return nil
		case <-time.After(delay):
			d.retryPending(ctx)
		}
	}
}

// PendingCount reports how many bundles are awaiting retry.
func (d *Daemon) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.unprocessed)
}

func (d *Daemon) currentDelay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backoff.CurrentDelay()
}

// onChange reprocesses the whole tree after filesystem activity. Change
// means fresh input, so the backoff starts over.
func (d *Daemon) onChange(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backoff.Reset()
	d.runLocked(ctx)
}

// retryPending re-attempts failed bundles, backing off while they keep
// failing.
func (d *Daemon) retryPending(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.unprocessed) == 0 {
		return
	}
	d.logger.Info("retrying failed bundles", logging.Int("bundles", len(d.unprocessed)))
	d.runLocked(ctx)
	if len(d.unprocessed) == 0 {
		d.backoff.Reset()
	} else {
		d.backoff.Increase()
	}
}

// runLocked executes one pipeline pass. Callers hold d.mu, which also
// serializes all filesystem mutation done by jobs.
func (d *Daemon) runLocked(ctx context.Context) {
	result, err := d.processor.Run(ctx)
	if err != nil {
		d.logger.Error("processing pass failed", logging.Error(err))
		return
	}
	d.unprocessed = result.Unprocessed
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
