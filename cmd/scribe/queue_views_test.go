package main

import (
	"testing"

	"scribe/internal/api"
)

func TestFormatStatusLabel(t *testing.T) {
	cases := map[string]string{
		"pending":      "Pending",
		"transcribing": "Transcribing",
		"":             "",
	}
	for in, want := range cases {
		if got := formatStatusLabel(in); got != want {
			t.Errorf("formatStatusLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildQueueListRowsOrdersNewestFirst(t *testing.T) {
	items := []api.QueueItem{
		{ID: 1, Title: "Older", Status: "completed", CreatedAt: "2026-08-20T10:00:00.000Z"},
		{ID: 2, Title: "Newer", Status: "pending", CreatedAt: "2026-08-21T10:00:00.000Z"},
	}

	rows := buildQueueListRows(items)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Newer" || rows[1][1] != "Older" {
		t.Fatalf("unexpected order: %v", rows)
	}
	if rows[0][2] != "Pending" {
		t.Fatalf("unexpected status label: %q", rows[0][2])
	}
}

func TestQueueItemTitleFallbacks(t *testing.T) {
	if got := queueItemTitle(api.QueueItem{SourcePath: "/videos/talk.mkv"}); got != "talk.mkv" {
		t.Errorf("source path fallback = %q", got)
	}
	if got := queueItemTitle(api.QueueItem{SourceURL: "https://example.com/a.mp4"}); got != "https://example.com/a.mp4" {
		t.Errorf("source url fallback = %q", got)
	}
	if got := queueItemTitle(api.QueueItem{}); got != "Unknown" {
		t.Errorf("empty fallback = %q", got)
	}
}
