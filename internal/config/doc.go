// Package config loads, normalizes, and validates the TOML configuration
// file. Load applies defaults first, so a missing file yields a usable
// configuration.
package config
