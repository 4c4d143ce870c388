// Package notifications publishes workflow progress to an ntfy topic.
// When no topic is configured a noop implementation is used, so callers
// never need to guard against notifications being disabled.
package notifications
