// Package ffprobe wraps ffprobe execution and JSON parsing for media
// inspection.
package ffprobe
