package extract_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
	"scribe/internal/extract"
	"scribe/internal/logging"
	"scribe/internal/media/ffprobe"
	"scribe/internal/queue"
)

func newFixture(t *testing.T) (*config.Config, *queue.Store) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	store, err := queue.Open(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &cfg, store
}

func probeWithAudio(t *testing.T) func(context.Context, string) (ffprobe.Result, error) {
	t.Helper()
	result, err := ffprobe.Parse([]byte(`{
        "streams": [
            {"index": 0, "codec_type": "video"},
            {"index": 1, "codec_type": "audio", "channels": 2, "tags": {"language": "ger"}}
        ],
        "format": {"duration": "60.0"}
    }`))
	if err != nil {
		t.Fatal(err)
	}
	return func(context.Context, string) (ffprobe.Result, error) {
		return result, nil
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	args := extract.BuildFFmpegArgs("in.mp4", 1, "out.wav")
	joined := strings.Join(args, " ")
	want := "-y -hide_banner -loglevel error -i in.mp4 -map 0:1 -vn -sn -dn -ac 1 -ar 16000 -c:a pcm_s16le out.wav"
	if joined != want {
		t.Errorf("args = %q, want %q", joined, want)
	}
}

func TestExtractorExecute(t *testing.T) {
	cfg, store := newFixture(t)
	ctx := context.Background()

	source := filepath.Join(cfg.Paths.StagingDir, "talk.mp4")
	if err := os.WriteFile(source, []byte("container"), 0o644); err != nil {
		t.Fatal(err)
	}
	item, err := store.NewFile(ctx, source, "Talk")
	if err != nil {
		t.Fatal(err)
	}

	extractor := extract.NewExtractor(cfg, store, logging.NewNop())
	extractor.WithProbe(probeWithAudio(t))
	var gotIndex int
	extractor.WithRunner(func(ctx context.Context, src string, audioIndex int, dest string) error {
		gotIndex = audioIndex
		return os.WriteFile(dest, []byte("wav"), 0o644)
	})

	if err := extractor.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := extractor.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotIndex != 1 {
		t.Errorf("audio index = %d, want 1", gotIndex)
	}
	if item.AudioFile != filepath.Join(cfg.Paths.StagingDir, "talk.wav") {
		t.Errorf("audio file = %q", item.AudioFile)
	}
	if item.Language != "de" {
		t.Errorf("language = %q, want de", item.Language)
	}
	if item.MediaInfoJSON == "" {
		t.Error("media info not captured")
	}
}

func TestExtractorExecuteNoAudioStream(t *testing.T) {
	cfg, store := newFixture(t)
	ctx := context.Background()

	source := filepath.Join(cfg.Paths.StagingDir, "silent.mp4")
	if err := os.WriteFile(source, []byte("container"), 0o644); err != nil {
		t.Fatal(err)
	}
	item, err := store.NewFile(ctx, source, "Silent")
	if err != nil {
		t.Fatal(err)
	}

	extractor := extract.NewExtractor(cfg, store, logging.NewNop())
	extractor.WithProbe(func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(`{"streams":[{"index":0,"codec_type":"video"}],"format":{}}`))
	})

	if err := extractor.Execute(ctx, item); err == nil {
		t.Fatal("expected error for missing audio stream")
	}
}

func TestExtractorExecuteMissingSource(t *testing.T) {
	cfg, store := newFixture(t)
	extractor := extract.NewExtractor(cfg, store, logging.NewNop())

	err := extractor.Execute(context.Background(), &queue.Item{ID: 9, SourcePath: "/nope/missing.mp4"})
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
