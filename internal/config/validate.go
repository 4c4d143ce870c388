package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownEngines = map[string]bool{
	"whispercpp": true,
	"graph":      true,
}

var knownTasks = map[string]bool{
	"transcribe": true,
	"translate":  true,
}

// Validate checks the configuration for values that would break the pipeline.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		problems = append(problems, "paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		problems = append(problems, "paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}

	if !knownEngines[c.Whisper.Engine] {
		problems = append(problems, fmt.Sprintf("whisper.engine must be one of whispercpp, graph (got %q)", c.Whisper.Engine))
	}
	if strings.TrimSpace(c.Whisper.ModelPath) == "" {
		problems = append(problems, "whisper.model_path must be set")
	}
	if !knownTasks[c.Whisper.Task] {
		problems = append(problems, fmt.Sprintf("whisper.task must be transcribe or translate (got %q)", c.Whisper.Task))
	}
	if c.Whisper.BeamSize < 1 {
		problems = append(problems, "whisper.beam_size must be at least 1")
	}
	if c.Whisper.BestOf < 1 {
		problems = append(problems, "whisper.best_of must be at least 1")
	}
	if c.Whisper.Threads < 0 {
		problems = append(problems, "whisper.threads must not be negative")
	}

	if c.Download.TimeoutSeconds <= 0 {
		problems = append(problems, "download.timeout_seconds must be positive")
	}
	if c.Download.MaxBytes < 0 {
		problems = append(problems, "download.max_bytes must not be negative")
	}

	if c.Subtitles.DurationToleranceSeconds < 0 {
		problems = append(problems, "subtitles.duration_tolerance_seconds must not be negative")
	}

	if c.Workflow.QueuePollInterval <= 0 {
		problems = append(problems, "workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		problems = append(problems, "workflow.error_retry_interval must be positive")
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		problems = append(problems, "workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		problems = append(problems, "workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json (got %q)", c.Logging.Format))
	}

	if c.Notifications.RequestTimeout <= 0 {
		problems = append(problems, "notifications.request_timeout must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
