package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error

	pathFields := []struct {
		name  string
		value *string
	}{
		{"paths.staging_dir", &c.Paths.StagingDir},
		{"paths.library_dir", &c.Paths.LibraryDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"whisper.model_path", &c.Whisper.ModelPath},
	}
	for _, field := range pathFields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			*field.value = ""
			continue
		}
		*field.value, err = expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}

	c.Whisper.Engine = strings.ToLower(strings.TrimSpace(c.Whisper.Engine))
	c.Whisper.Task = strings.ToLower(strings.TrimSpace(c.Whisper.Task))
	c.Whisper.Language = strings.ToLower(strings.TrimSpace(c.Whisper.Language))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	return nil
}
