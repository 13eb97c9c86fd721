// Package config loads, normalizes, and validates the TOML configuration
// for the strobe daemon and CLI.
package config
