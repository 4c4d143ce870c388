package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
	"scribe/internal/fetch"
	"scribe/internal/logging"
	"scribe/internal/queue"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://host.example/media/intro-to-go_part.1.mp4", "Intro To Go Part 1"},
		{"/videos/deep_learning-lecture.mkv", "Deep Learning Lecture"},
		{"https://host.example/", "Host Example"},
		{"https://cdn.media.example", "Cdn Media Example"},
		{"", "Untitled Video"},
	}
	for _, tc := range cases {
		if got := fetch.DeriveTitle(tc.in); got != tc.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDownloaderStoresFile(t *testing.T) {
	payload := strings.Repeat("v", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	dir := t.TempDir()
	d := fetch.NewDownloader(config.Download{UserAgent: "scribe-test", TimeoutSeconds: 10})

	var sawProgress bool
	result, err := d.Download(context.Background(), server.URL+"/clips/demo.mp4", dir, func(copied, total int64) {
		sawProgress = true
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(result.Path) != "demo.mp4" {
		t.Errorf("stored name = %q", filepath.Base(result.Path))
	}
	if result.Bytes != int64(len(payload)) {
		t.Errorf("bytes = %d, want %d", result.Bytes, len(payload))
	}
	if !sawProgress {
		t.Error("no progress callbacks")
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Error("stored content mismatch")
	}
}

func TestDownloaderAppendsExtensionFromContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/webm")
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	d := fetch.NewDownloader(config.Download{TimeoutSeconds: 10})
	result, err := d.Download(context.Background(), server.URL+"/watch", t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got := filepath.Ext(result.Path); got != ".webm" {
		t.Errorf("ext = %q, want .webm", got)
	}
}

func TestDownloaderEnforcesMaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	d := fetch.NewDownloader(config.Download{TimeoutSeconds: 10, MaxBytes: 1024})
	if _, err := d.Download(context.Background(), server.URL+"/big.mp4", t.TempDir(), nil); err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestDownloaderRejectsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	d := fetch.NewDownloader(config.Download{TimeoutSeconds: 10})
	if _, err := d.Download(context.Background(), server.URL+"/missing.mp4", t.TempDir(), nil); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetcherExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	store, err := queue.Open(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	item, err := store.NewURL(ctx, server.URL+"/conference-talk.mp4", "")
	if err != nil {
		t.Fatal(err)
	}

	fetcher := fetch.NewFetcher(&cfg, store, logging.NewNop())
	if err := fetcher.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if item.Title != "Conference Talk" {
		t.Errorf("derived title = %q", item.Title)
	}
	if err := fetcher.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.SourcePath == "" {
		t.Fatal("source path not set")
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
	if item.ProgressPercent != 100 {
		t.Errorf("progress = %v", item.ProgressPercent)
	}
}

func TestFetcherExecuteRequiresURL(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	store, err := queue.Open(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	fetcher := fetch.NewFetcher(&cfg, store, logging.NewNop())
	err = fetcher.Execute(context.Background(), &queue.Item{ID: 1})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
