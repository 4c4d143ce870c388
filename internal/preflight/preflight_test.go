package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("Staging", dir); !result.Passed {
		t.Errorf("writable dir failed: %+v", result)
	}
	if result := CheckDirectoryAccess("Missing", filepath.Join(dir, "nope")); result.Passed {
		t.Error("missing dir passed")
	}
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("File", file); result.Passed {
		t.Error("plain file passed directory check")
	}
}

func TestCheckModelFile(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "ggml-base.bin")
	if result := CheckModelFile(model); result.Passed {
		t.Error("missing model passed")
	}
	if err := os.WriteFile(model, []byte("weights"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckModelFile(model); !result.Passed {
		t.Errorf("readable model failed: %+v", result)
	}
}

func TestRunAllReportsEveryCheck(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = dir
	cfg.Paths.LibraryDir = dir
	cfg.Whisper.ModelPath = filepath.Join(dir, "model.bin")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("len = %d, want 3", len(results))
	}
	if !results[0].Passed || !results[1].Passed {
		t.Errorf("directory checks failed: %+v", results[:2])
	}
	if results[2].Passed {
		t.Error("model check passed without a file")
	}
}
