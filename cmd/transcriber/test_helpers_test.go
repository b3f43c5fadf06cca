package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kelno/audio-journal-transcriber/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	inputDir   string
	storeDir   string
	logDir     string
	ffprobe    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		inputDir:   filepath.Join(base, "inbox"),
		storeDir:   filepath.Join(base, "bundles"),
		logDir:     filepath.Join(base, "logs"),
		ffprobe:    filepath.Join(base, "bin", "ffprobe"),
	}
	for _, dir := range []string{env.inputDir, env.storeDir, env.logDir, filepath.Dir(env.ffprobe)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	// Stub ffprobe reports a fixed 42 second duration for any input.
	script := "#!/bin/sh\nprintf '{\"format\":{\"duration\":\"42.0\"}}\\n'\n"
	if err := os.WriteFile(env.ffprobe, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub ffprobe: %v", err)
	}

	env.writeConfig(t, "")
	return env
}

// writeConfig rewrites the test configuration file, appending extra raw TOML
// after the baseline paths and processing sections.
func (e *cliTestEnv) writeConfig(t *testing.T, extra string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
input_dir = %q
store_dir = %q
log_dir = %q

[processing]
ffprobe_binary = %q
`, e.inputDir, e.storeDir, e.logDir, e.ffprobe)
	if extra != "" {
		content += "\n" + extra
	}
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) writeRecording(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.inputDir, name)
	testsupport.WriteAudioFile(t, path, 64)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
