// Package notifications delivers processing events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Processing code depends only on the small Service interface, so
// alternative transports slot in without touching the pipeline.
package notifications
