// Package config loads, normalizes, and validates pricing board configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file, and honours
// environment fallbacks such as BOARD_WEBHOOK_URL. The Config type centralizes
// every knob the daemon and CLI need so storage directories, notification
// targets, and sweep intervals are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
