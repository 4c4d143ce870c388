package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/daemon"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/stage"
	"scribe/internal/testsupport"
	"scribe/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Item) error { return nil }
func (noopStage) Execute(context.Context, *queue.Item) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health   { return stage.Healthy("noop") }

func newDaemon(t *testing.T) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), nil)
	mgr.ConfigureStages(workflow.StageSet{Fetcher: noopStage{}})
	mgr.SkipPreflight()
	d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Error("second Start accepted")
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Error("status not running")
	}
	if len(status.Dependencies) == 0 {
		t.Error("no dependency checks reported")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Error("still running after Stop")
	}
}

func TestDaemonAddURLValidation(t *testing.T) {
	d, _ := newDaemon(t)
	ctx := context.Background()

	if _, err := d.AddURL(ctx, ""); err == nil {
		t.Error("empty url accepted")
	}
	if _, err := d.AddURL(ctx, "ftp://example.com/video.mp4"); err == nil {
		t.Error("ftp url accepted")
	}

	item, err := d.AddURL(ctx, "https://example.com/videos/intro-to-go.mp4")
	if err != nil {
		t.Fatalf("AddURL: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Errorf("status = %s, want pending", item.Status)
	}
	if item.Title == "" {
		t.Error("title not derived")
	}

	if _, err := d.AddURL(ctx, "https://example.com/videos/intro-to-go.mp4"); err == nil {
		t.Error("duplicate url accepted")
	}
}

func TestDaemonAddFileValidation(t *testing.T) {
	d, _ := newDaemon(t)
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := d.AddFile(ctx, filepath.Join(dir, "missing.mp4")); err == nil {
		t.Error("missing file accepted")
	}

	textFile := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textFile, []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddFile(ctx, textFile); err == nil {
		t.Error("unsupported extension accepted")
	}

	video := filepath.Join(dir, "talk.mkv")
	if err := os.WriteFile(video, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	item, err := d.AddFile(ctx, video)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if item.Status != queue.StatusFetched {
		t.Errorf("status = %s, want fetched", item.Status)
	}
}
