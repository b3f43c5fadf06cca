package jobs

import (
	"context"
	"log/slog"

	"github.com/kelno/audio-journal-transcriber/internal/logging"
)

// Runner executes bundle job lists sequentially.
type Runner struct {
	env    Env
	logger *slog.Logger
}

// NewRunner builds a runner around the given execution environment.
func NewRunner(env Env) *Runner {
	logger := env.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	env.Logger = logging.WithComponent(logger, "job-runner")
	return &Runner{env: env, logger: env.Logger}
}

// Process runs each bundle's jobs in order. The first failing job abandons
// that bundle's remaining jobs; the failed job and everything after it are
// returned as unprocessed so the caller can retry them later. Other bundles
// keep processing regardless.
func (r *Runner) Process(ctx context.Context, all []BundleJobs) []BundleJobs {
	var unprocessed []BundleJobs
	for _, bundleJobs := range all {
		if len(bundleJobs.Jobs) == 0 {
			continue
		}
		for i, job := range bundleJobs.Jobs {
			r.logger.Info("processing job", logging.String("job", job.Describe()))
			if err := job.Run(ctx, r.env); err != nil {
				r.logger.Error("job failed, skipping remaining jobs for this bundle",
					logging.String("job", job.Describe()),
					logging.Error(err))
				unprocessed = append(unprocessed, BundleJobs{
					Bundle: bundleJobs.Bundle,
					Jobs:   bundleJobs.Jobs[i:],
				})
				break
			}
		}
	}
	return unprocessed
}
