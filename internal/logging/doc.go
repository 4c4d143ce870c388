// Package logging configures slog handlers and shared attribute helpers
// used across the scribe daemon and CLI.
package logging
