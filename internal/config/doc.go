// Package config loads, normalizes, and validates releasewatch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks for secrets such as RELEASEWATCH_WEBHOOK_SOLO. Live wraps a loaded
// configuration so the channel map can change without restarting the daemon.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
