package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/queue"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	return &cfg
}

func openStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.Open(testConfig(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewURLStartsPending(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewURL(ctx, "https://example.com/talk.mp4", "Conference Talk")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Errorf("status = %s, want pending", item.Status)
	}
	if item.Title != "Conference Talk" {
		t.Errorf("title = %q", item.Title)
	}
	if item.ID == 0 {
		t.Error("expected non-zero id")
	}
}

func TestNewFileSkipsFetch(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewFile(ctx, "/videos/lecture.mkv", "Lecture")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if item.Status != queue.StatusFetched {
		t.Errorf("status = %s, want fetched", item.Status)
	}
	if item.SourcePath != "/videos/lecture.mkv" {
		t.Errorf("source path = %q", item.SourcePath)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewURL(ctx, "https://example.com/v.mp4", "")
	if err != nil {
		t.Fatal(err)
	}

	item.Status = queue.StatusExtracted
	item.SourcePath = "/staging/v.mp4"
	item.AudioFile = "/staging/v.wav"
	item.Language = "en"
	item.SetProgress("Extracting audio", "done", 100)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("item not found after update")
	}
	if got.Status != queue.StatusExtracted {
		t.Errorf("status = %s", got.Status)
	}
	if got.AudioFile != "/staging/v.wav" {
		t.Errorf("audio file = %q", got.AudioFile)
	}
	if got.Language != "en" {
		t.Errorf("language = %q", got.Language)
	}
	if got.ProgressPercent != 100 {
		t.Errorf("progress = %v", got.ProgressPercent)
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.NewURL(ctx, "https://example.com/a.mp4", "A")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.NewURL(ctx, "https://example.com/b.mp4", "B"); err != nil {
		t.Fatal(err)
	}

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending item %d, got %+v", first.ID, next)
	}
}

func TestResetStuckProcessingRollsBackToStableStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewFile(ctx, "/videos/a.mkv", "A")
	if err != nil {
		t.Fatal(err)
	}
	item.Status = queue.StatusTranscribing
	if err := store.Update(ctx, item); err != nil {
		t.Fatal(err)
	}

	affected, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != queue.StatusExtracted {
		t.Errorf("status = %s, want extracted", got.Status)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewURL(ctx, "https://example.com/a.mp4", "A")
	if err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-10 * time.Minute)
	item.Status = queue.StatusFetching
	item.LastHeartbeat = &stale
	if err := store.Update(ctx, item); err != nil {
		t.Fatal(err)
	}

	affected, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != queue.StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.LastHeartbeat != nil {
		t.Error("heartbeat should be cleared")
	}
}

func TestReclaimIgnoresFreshHeartbeats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	item, err := store.NewURL(ctx, "https://example.com/a.mp4", "A")
	if err != nil {
		t.Fatal(err)
	}
	item.Status = queue.StatusFetching
	if err := store.Update(ctx, item); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatal(err)
	}

	affected, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-5*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if affected != 0 {
		t.Fatalf("affected = %d, want 0", affected)
	}
}

func TestRetryFailedResumesAtFetchedWhenFileExists(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	withFile, err := store.NewFile(ctx, "/videos/a.mkv", "A")
	if err != nil {
		t.Fatal(err)
	}
	withFile.SetFailed("transcription failed")
	if err := store.Update(ctx, withFile); err != nil {
		t.Fatal(err)
	}

	urlOnly, err := store.NewURL(ctx, "https://example.com/b.mp4", "B")
	if err != nil {
		t.Fatal(err)
	}
	urlOnly.SetFailed("download failed")
	if err := store.Update(ctx, urlOnly); err != nil {
		t.Fatal(err)
	}

	affected, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("affected = %d, want 2", affected)
	}

	gotFile, _ := store.GetByID(ctx, withFile.ID)
	if gotFile.Status != queue.StatusFetched {
		t.Errorf("file-backed item status = %s, want fetched", gotFile.Status)
	}
	gotURL, _ := store.GetByID(ctx, urlOnly.ID)
	if gotURL.Status != queue.StatusPending {
		t.Errorf("url item status = %s, want pending", gotURL.Status)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.NewURL(ctx, "https://example.com/v.mp4", ""); err != nil {
			t.Fatal(err)
		}
	}
	done, err := store.NewFile(ctx, "/videos/done.mkv", "")
	if err != nil {
		t.Fatal(err)
	}
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatal(err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if health.Total != 4 || health.Pending != 3 || health.Completed != 1 {
		t.Errorf("health = %+v", health)
	}
}

func TestCheckHealthReportsColumns(t *testing.T) {
	store := openStore(t)
	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Errorf("health = %+v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Errorf("missing columns: %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Error("integrity check failed")
	}
}

func TestClearVariants(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	pending, _ := store.NewURL(ctx, "https://example.com/p.mp4", "")
	failed, _ := store.NewURL(ctx, "https://example.com/f.mp4", "")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatal(err)
	}
	completed, _ := store.NewURL(ctx, "https://example.com/c.mp4", "")
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatal(err)
	}

	if n, err := store.ClearFailed(ctx); err != nil || n != 1 {
		t.Fatalf("ClearFailed = %d, %v", n, err)
	}
	if n, err := store.ClearCompleted(ctx); err != nil || n != 1 {
		t.Fatalf("ClearCompleted = %d, %v", n, err)
	}
	if n, err := store.Clear(ctx); err != nil || n != 1 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
	if got, err := store.GetByID(ctx, pending.ID); err != nil || got != nil {
		t.Fatalf("expected empty queue, got %+v (err %v)", got, err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus("  Transcribing "); !ok || status != queue.StatusTranscribing {
		t.Errorf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Error("unexpected status accepted")
	}
}
