package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeText()
	c.normalizeDaemon()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.StoreDir, err = expandPath(c.Paths.StoreDir); err != nil {
		return fmt.Errorf("paths.store_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	if c.Audio.APIKey == "" {
		if value, ok := os.LookupEnv("TRANSCRIBER_AUDIO_API_KEY"); ok {
			c.Audio.APIKey = strings.TrimSpace(value)
		}
	}
	c.Audio.BaseURL = ensureTrailingSlash(strings.TrimSpace(c.Audio.BaseURL))
	c.Audio.Model = strings.TrimSpace(c.Audio.Model)
	if c.Audio.TimeoutSeconds <= 0 {
		c.Audio.TimeoutSeconds = defaultAudioTimeoutSeconds
	}
}

func (c *Config) normalizeText() {
	if c.Text.APIKey == "" {
		if value, ok := os.LookupEnv("TRANSCRIBER_TEXT_API_KEY"); ok {
			c.Text.APIKey = strings.TrimSpace(value)
		}
	}
	c.Text.BaseURL = ensureTrailingSlash(strings.TrimSpace(c.Text.BaseURL))
	c.Text.Model = strings.TrimSpace(c.Text.Model)
	if c.Text.TimeoutSeconds <= 0 {
		c.Text.TimeoutSeconds = defaultTextTimeoutSeconds
	}
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.StableDelaySeconds <= 0 {
		c.Daemon.StableDelaySeconds = defaultStableDelaySeconds
	}
	if c.Daemon.RetryInitialSeconds <= 0 {
		c.Daemon.RetryInitialSeconds = defaultRetryInitialSeconds
	}
	if c.Daemon.RetryMaxSeconds <= 0 {
		c.Daemon.RetryMaxSeconds = defaultRetryMaxSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func ensureTrailingSlash(url string) string {
	if url == "" || strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}
