// Package api defines transport-friendly representations of queue and
// daemon state shared by the IPC server and the CLI.
package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	SourceURL      string          `json:"sourceUrl,omitempty"`
	SourcePath     string          `json:"sourcePath,omitempty"`
	Status         string          `json:"status"`
	Progress       QueueProgress   `json:"progress"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
	AudioFile      string          `json:"audioFile,omitempty"`
	TranscriptFile string          `json:"transcriptFile,omitempty"`
	SubtitleFile   string          `json:"subtitleFile,omitempty"`
	Language       string          `json:"language,omitempty"`
	MediaInfo      json.RawMessage `json:"mediaInfo,omitempty"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}
