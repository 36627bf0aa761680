// Package config loads, normalizes, and validates atelier configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI needs: backend endpoint, concurrency ceiling, upload limits, default
// processing options, and marketplace publish defaults.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical values, and clear validation errors.
package config
