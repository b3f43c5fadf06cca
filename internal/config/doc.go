// Package config loads, normalizes, and validates transcriber configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for API
// keys. The Config type centralizes every knob the daemon and CLI need, so
// input/store directories and AI endpoint credentials are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical base URLs, and clear validation errors.
package config
