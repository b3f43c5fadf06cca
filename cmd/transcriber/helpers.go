package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelno/audio-journal-transcriber/internal/bundle"
	"github.com/kelno/audio-journal-transcriber/internal/config"
	"github.com/kelno/audio-journal-transcriber/internal/deps"
	"github.com/kelno/audio-journal-transcriber/internal/jobs"
	"github.com/kelno/audio-journal-transcriber/internal/logging"
	"github.com/kelno/audio-journal-transcriber/internal/media/ffprobe"
	"github.com/kelno/audio-journal-transcriber/internal/notifications"
	"github.com/kelno/audio-journal-transcriber/internal/services/ai"
)

// applyLogLevel overrides the configured log level with the command flag
// when set.
func applyLogLevel(cfg *config.Config, level string) {
	if trimmed := strings.TrimSpace(level); trimmed != "" {
		cfg.Logging.Level = trimmed
	}
}

// buildLogger writes to stdout and to a log file under the configured log
// directory.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	paths := []string{"stdout"}
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		paths = append(paths, filepath.Join(cfg.Paths.LogDir, "transcriber.log"))
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
	})
}

// checkEnvironment verifies the external binaries the configuration calls
// for are actually present.
func checkEnvironment(cfg *config.Config) error {
	missing := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg)))
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for _, status := range missing {
		names = append(names, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	return fmt.Errorf("missing required binaries: %s", strings.Join(names, ", "))
}

func buildPipeline(cfg *config.Config, logger *slog.Logger, dryRun bool) *jobs.Pipeline {
	store := bundle.NewStore(cfg.Paths.StoreDir, ffprobe.NewProber(cfg.FFprobeBinary()), logger)
	client := ai.NewClient(aiConfigFrom(cfg))
	return jobs.NewPipeline(cfg, store, client, notifications.NewService(cfg), logger, dryRun)
}

func aiConfigFrom(cfg *config.Config) ai.Config {
	return ai.Config{
		AudioBaseURL: cfg.Audio.BaseURL,
		AudioAPIKey:  cfg.Audio.APIKey,
		AudioModel:   cfg.Audio.Model,
		AudioStream:  cfg.Audio.Stream,
		AudioTimeout: time.Duration(cfg.Audio.TimeoutSeconds) * time.Second,
		TextBaseURL:  cfg.Text.BaseURL,
		TextAPIKey:   cfg.Text.APIKey,
		TextModel:    cfg.Text.Model,
		ExtraContext: cfg.Text.ExtraContext,
		TextTimeout:  time.Duration(cfg.Text.TimeoutSeconds) * time.Second,
	}
}
