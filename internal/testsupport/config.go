// Package testsupport provides fixtures shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kelno/audio-journal-transcriber/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "inbox")
	cfgVal.Paths.StoreDir = filepath.Join(base, "bundles")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Audio.Model = "whisper-test"
	cfgVal.Text.Model = "llm-test"

	for _, dir := range []string{cfgVal.Paths.InputDir, cfgVal.Paths.StoreDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSummaries enables the summary and naming stages on the test config.
func WithSummaries() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Text.SummaryEnabled = true
	}
}

// WithRetention sets the audio retention window in days.
func WithRetention(days int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.DeleteSourceAudioAfterDays = days
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StoreDir)
}
