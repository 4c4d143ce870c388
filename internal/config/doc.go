// Package config loads, validates, and normalizes scribe's TOML
// configuration.
package config
