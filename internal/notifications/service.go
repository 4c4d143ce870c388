package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scribe/internal/config"
)

const userAgent = "Scribe-Go/1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyDownloadStarted(ctx context.Context, title string) error
	NotifyDownloadCompleted(ctx context.Context, title string) error
	NotifyTranscriptionStarted(ctx context.Context, title string) error
	NotifyTranscriptionCompleted(ctx context.Context, title, language string) error
	NotifySubtitlesReady(ctx context.Context, title, subtitleFile string) error
	NotifyQueueStarted(ctx context.Context, count int) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  config.Notifications
}

func (n *ntfyService) NotifyDownloadStarted(ctx context.Context, title string) error {
	if !n.enabled.Download {
		return nil
	}
	data := payload{
		title:   "Scribe - Download Started",
		message: fmt.Sprintf("Started downloading: %s", strings.TrimSpace(title)),
		tags:    []string{"scribe", "download", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, title string) error {
	if !n.enabled.Download {
		return nil
	}
	data := payload{
		title:   "Scribe - Download Complete",
		message: fmt.Sprintf("Download complete: %s", strings.TrimSpace(title)),
		tags:    []string{"scribe", "download", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTranscriptionStarted(ctx context.Context, title string) error {
	if !n.enabled.Transcription {
		return nil
	}
	data := payload{
		title:   "Scribe - Transcription Started",
		message: fmt.Sprintf("Started transcribing: %s", strings.TrimSpace(title)),
		tags:    []string{"scribe", "transcribe", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTranscriptionCompleted(ctx context.Context, title, language string) error {
	if !n.enabled.Transcription {
		return nil
	}
	title = strings.TrimSpace(title)
	language = strings.TrimSpace(language)
	message := fmt.Sprintf("Transcription complete: %s", title)
	if language != "" {
		message = fmt.Sprintf("%s (%s)", message, language)
	}
	data := payload{
		title:   "Scribe - Transcribed",
		message: message,
		tags:    []string{"scribe", "transcribe", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySubtitlesReady(ctx context.Context, title, subtitleFile string) error {
	if !n.enabled.Completion {
		return nil
	}
	title = strings.TrimSpace(title)
	subtitleFile = strings.TrimSpace(subtitleFile)
	message := fmt.Sprintf("Subtitles ready: %s", title)
	if subtitleFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, subtitleFile)
	}
	data := payload{
		title:    "Scribe - Complete",
		message:  message,
		tags:     []string{"scribe", "subtitles", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueStarted(ctx context.Context, count int) error {
	if !n.enabled.Queue {
		return nil
	}
	data := payload{
		title:   "Scribe - Queue Started",
		message: fmt.Sprintf("Started processing queue with %d items", count),
		tags:    []string{"scribe", "queue", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.enabled.Queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var message string
	var title string
	if failed == 0 {
		title = "Scribe - Queue Complete"
		message = fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, durationText)
	} else {
		title = "Scribe - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"scribe", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.enabled.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Scribe - Error",
		message:  builder.String(),
		tags:     []string{"scribe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scribe - Test",
		message:  "Notification system test",
		tags:     []string{"scribe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDownloadStarted(context.Context, string) error                 { return nil }
func (noopService) NotifyDownloadCompleted(context.Context, string) error               { return nil }
func (noopService) NotifyTranscriptionStarted(context.Context, string) error            { return nil }
func (noopService) NotifyTranscriptionCompleted(context.Context, string, string) error  { return nil }
func (noopService) NotifySubtitlesReady(context.Context, string, string) error          { return nil }
func (noopService) NotifyQueueStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
