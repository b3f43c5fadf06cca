package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateText(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.StoreDir == "" {
		return errors.New("paths.store_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.StoreDir {
		return errors.New("paths.input_dir and paths.store_dir must differ")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.BaseURL == "" {
		return errors.New("audio.base_url must be set")
	}
	if c.Audio.Model == "" {
		return errors.New("audio.model must be set")
	}
	return nil
}

func (c *Config) validateText() error {
	if !c.Text.SummaryEnabled {
		return nil
	}
	if c.Text.BaseURL == "" {
		return errors.New("text.base_url must be set when text.summary_enabled is true")
	}
	if c.Text.Model == "" {
		return errors.New("text.model must be set when text.summary_enabled is true")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon.RetryMaxSeconds < c.Daemon.RetryInitialSeconds {
		return fmt.Errorf("daemon.retry_max_seconds (%v) must be >= daemon.retry_initial_seconds (%v)",
			c.Daemon.RetryMaxSeconds, c.Daemon.RetryInitialSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
