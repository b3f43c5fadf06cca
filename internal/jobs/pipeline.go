package jobs

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/kelno/audio-journal-transcriber/internal/bundle"
	"github.com/kelno/audio-journal-transcriber/internal/config"
	"github.com/kelno/audio-journal-transcriber/internal/fileutil"
	"github.com/kelno/audio-journal-transcriber/internal/logging"
	"github.com/kelno/audio-journal-transcriber/internal/notifications"
)

// Pipeline runs one full gather, resolve, and execute pass over the input
// and store directories. Both run-once mode and the daemon drive the same
// pipeline.
type Pipeline struct {
	cfg      *config.Config
	store    *bundle.Store
	runner   *Runner
	notifier notifications.Service
	logger   *slog.Logger
	dryRun   bool
}

// Result summarizes one pipeline pass.
type Result struct {
	// Pending is the number of bundles that had at least one job.
	Pending int
	// Unprocessed holds the job lists abandoned by failures, for retry.
	Unprocessed []BundleJobs
}

// NewPipeline wires a pipeline from its collaborators. A nil notifier
// disables notifications.
func NewPipeline(cfg *config.Config, store *bundle.Store, ai AIService, notifier notifications.Service, logger *slog.Logger, dryRun bool) *Pipeline {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	componentLogger := logging.WithComponent(logger, "pipeline")
	env := Env{
		Store: store,
		AI:    ai,
		Settings: Settings{
			SummaryEnabled:  cfg.Text.SummaryEnabled,
			RetentionDays:   cfg.Processing.DeleteSourceAudioAfterDays,
			TranscribeModel: cfg.Audio.Model,
			SummaryModel:    cfg.Text.Model,
		},
		Logger: logger,
		DryRun: dryRun,
	}
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		runner:   NewRunner(env),
		notifier: notifier,
		logger:   componentLogger,
		dryRun:   dryRun,
	}
}

// Run executes one pass: scan the input tree and the store, resolve pending
// jobs per bundle, and execute them. A missing input directory aborts the
// pass; per-bundle failures do not.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if p.dryRun {
		p.logger.Warn("dry run mode: no files will be modified and no AI calls will be made")
	}

	all, tooShort, err := p.gather(ctx)
	if err != nil {
		return nil, err
	}
	p.removeShortFiles(tooShort)

	result := &Result{Pending: len(all)}
	if len(all) == 0 {
		p.logger.Info("no pending work found")
		p.cleanupInputTree()
		return result, nil
	}

	p.logger.Info("processing pending bundles", logging.Int("bundles", len(all)))
	result.Unprocessed = p.runner.Process(ctx, all)

	// Nothing actually happened in a dry run, so announcing processed
	// bundles would be a lie (and an outbound request).
	if !p.dryRun {
		failed := map[string]bool{}
		for _, bj := range result.Unprocessed {
			failed[bj.Bundle.Name] = true
		}
		for _, bj := range all {
			if !failed[bj.Bundle.Name] {
				if err := p.notifier.NotifyBundleProcessed(ctx, bj.Bundle.Name); err != nil {
					p.logger.Warn("notification failed", logging.Error(err))
				}
			}
		}
	}

	p.cleanupInputTree()

	processed := len(all) - len(result.Unprocessed)
	p.logger.Info("run finished",
		logging.Int("processed", processed),
		logging.Int("failed", len(result.Unprocessed)),
		logging.Duration("elapsed", time.Since(start)))
	if !p.dryRun {
		if err := p.notifier.NotifyRunCompleted(ctx, processed, len(result.Unprocessed), time.Since(start)); err != nil {
			p.logger.Warn("notification failed", logging.Error(err))
		}
	}
	return result, nil
}

// Plan computes the pending work for every bundle without executing any of
// it. Too-short recordings are left untouched.
func (p *Pipeline) Plan(ctx context.Context) ([]BundleJobs, error) {
	all, _, err := p.gather(ctx)
	return all, err
}

// gather scans the input tree and the store and resolves jobs per bundle.
func (p *Pipeline) gather(ctx context.Context) ([]BundleJobs, []string, error) {
	pending, tooShort, err := p.store.GatherPendingAudio(ctx, p.cfg.Paths.InputDir, p.cfg.Processing.MinLengthSeconds)
	if err != nil {
		return nil, nil, err
	}
	existing, err := p.store.GatherExisting()
	if err != nil {
		return nil, nil, err
	}

	var all []BundleJobs
	for _, b := range append(pending, existing...) {
		if list := Resolve(p.store, b, p.runner.env.Settings); len(list) > 0 {
			all = append(all, BundleJobs{Bundle: b, Jobs: list})
		}
	}
	return all, tooShort, nil
}

// removeShortFiles applies the remove_short_files policy to recordings the
// gather pass rejected as too short.
func (p *Pipeline) removeShortFiles(paths []string) {
	if !p.cfg.Processing.RemoveShortFiles {
		return
	}
	for _, path := range paths {
		p.logger.Info("removing short recording", logging.String("file", path))
		if p.dryRun {
			continue
		}
		if err := os.Remove(path); err != nil {
			p.logger.Warn("failed to remove short recording",
				logging.String("file", path),
				logging.Error(err))
		}
	}
}

// cleanupInputTree drops directories left empty after recordings moved into
// the store.
func (p *Pipeline) cleanupInputTree() {
	if p.dryRun {
		return
	}
	if err := fileutil.RemoveEmptySubdirs(p.cfg.Paths.InputDir); err != nil {
		p.logger.Warn("input tree cleanup failed", logging.Error(err))
	}
}
