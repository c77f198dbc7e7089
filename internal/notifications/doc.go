// Package notifications delivers run lifecycle events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Per-event preferences let users silence start or completion messages while
// keeping degradation and abort alerts.
//
// Extend this package if you need alternative transports; the engine depends
// only on the Service interface.
package notifications
