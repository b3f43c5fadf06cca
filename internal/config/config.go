package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories the transcriber operates on.
type Paths struct {
	InputDir string `toml:"input_dir"`
	StoreDir string `toml:"store_dir"`
	LogDir   string `toml:"log_dir"`
}

// Processing contains bundle processing policy.
type Processing struct {
	// MinLengthSeconds rejects recordings shorter than this. Zero disables
	// the check.
	MinLengthSeconds float64 `toml:"min_length_seconds"`
	// RemoveShortFiles deletes source recordings rejected by the minimum
	// length check instead of leaving them in the input tree.
	RemoveShortFiles bool `toml:"remove_short_files"`
	// DeleteSourceAudioAfterDays purges bundle audio older than this many
	// days. Zero keeps audio forever.
	DeleteSourceAudioAfterDays int `toml:"delete_source_audio_after_days"`
	// FFprobeBinary overrides the ffprobe executable used for duration
	// probing.
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Audio contains connection settings for the transcription API.
type Audio struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Stream         bool   `toml:"stream"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Text contains connection settings for the summarization/naming LLM.
type Text struct {
	SummaryEnabled bool   `toml:"summary_enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	ExtraContext   string `toml:"extra_context"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Daemon contains timing settings for daemon mode.
type Daemon struct {
	// StableDelaySeconds is the filesystem quiet period before a change
	// burst triggers reprocessing.
	StableDelaySeconds float64 `toml:"stable_delay_seconds"`
	// RetryInitialSeconds seeds the failure backoff delay.
	RetryInitialSeconds float64 `toml:"retry_initial_seconds"`
	// RetryMaxSeconds caps the failure backoff delay.
	RetryMaxSeconds float64 `toml:"retry_max_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the transcriber.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Processing    Processing    `toml:"processing"`
	Audio         Audio         `toml:"audio"`
	Text          Text          `toml:"text"`
	Daemon        Daemon        `toml:"daemon"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/transcriber/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("transcriber.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the store and log directories. The input
// directory is deliberately not created: its absence is a fatal runtime
// error, not something to paper over.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StoreDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable used for duration probing.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Processing.FFprobeBinary) != "" {
		return c.Processing.FFprobeBinary
	}
	return "ffprobe"
}

// ExpandPath resolves a leading ~ against the home directory and returns an
// absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
