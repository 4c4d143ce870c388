package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/config"
	"scribe/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySubtitlesReady(context.Background(), "Example", "example.srt"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
}

func serviceFor(t *testing.T, endpoint string) notifications.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = endpoint
	return notifications.NewService(&cfg)
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(ctx context.Context, svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "download completed",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyDownloadCompleted(ctx, "Go Talk")
			},
			expectTitle:   "Scribe - Download Complete",
			expectMessage: "Download complete: Go Talk",
			expectTags:    "scribe,download,completed",
		},
		{
			name: "transcription completed",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyTranscriptionCompleted(ctx, "Go Talk", "en")
			},
			expectTitle:   "Scribe - Transcribed",
			expectMessage: "Transcription complete: Go Talk (en)",
			expectTags:    "scribe,transcribe,completed",
		},
		{
			name: "subtitles ready",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifySubtitlesReady(ctx, "Go Talk", "Go Talk.srt")
			},
			expectTitle:    "Scribe - Complete",
			expectMessage:  "Subtitles ready: Go Talk\nFile: Go Talk.srt",
			expectTags:     "scribe,subtitles,completed",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyError(ctx, errors.New("download timed out"), "fetch")
			},
			expectTitle:    "Scribe - Error",
			expectMessage:  "Error with fetch: download timed out",
			expectTags:     "scribe,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured capturedRequest
			server := captureServer(t, &captured)
			defer server.Close()

			svc := serviceFor(t, server.URL)
			if err := tc.send(context.Background(), svc); err != nil {
				t.Fatalf("send: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Errorf("title = %q, want %q", captured.title, tc.expectTitle)
			}
			if captured.body != tc.expectMessage {
				t.Errorf("body = %q, want %q", captured.body, tc.expectMessage)
			}
			if captured.tags != tc.expectTags {
				t.Errorf("tags = %q, want %q", captured.tags, tc.expectTags)
			}
			if captured.priority != tc.expectPriority {
				t.Errorf("priority = %q, want %q", captured.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceRespectsEventToggles(t *testing.T) {
	var captured capturedRequest
	server := captureServer(t, &captured)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Download = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyDownloadStarted(context.Background(), "skipped"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if captured.body != "" {
		t.Errorf("disabled event still sent: %q", captured.body)
	}
}

func TestNtfyServiceReportsHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	defer server.Close()

	svc := serviceFor(t, server.URL)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
