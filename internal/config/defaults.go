package config

// Default returns the baseline configuration before any file is applied.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: "~/.local/share/scribe/staging",
			LibraryDir: "~/subtitles",
			LogDir:     "~/.local/share/scribe/logs",
		},
		Download: Download{
			UserAgent:      "scribe/1.0",
			TimeoutSeconds: 600,
			MaxBytes:       0,
		},
		Whisper: Whisper{
			Engine:        "whispercpp",
			ModelPath:     "~/.local/share/scribe/models/ggml-base.bin",
			Language:      "",
			Task:          "transcribe",
			BeamSize:      5,
			BestOf:        5,
			Threads:       0,
			InitialPrompt: "",
		},
		Subtitles: Subtitles{
			KeepAudio:                false,
			DurationToleranceSeconds: 2.0,
		},
		Notifications: Notifications{
			NtfyTopic:      "",
			RequestTimeout: 10,
			Download:       true,
			Transcription:  true,
			Completion:     true,
			Queue:          true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 30,
			HeartbeatInterval:  15,
			HeartbeatTimeout:   120,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
