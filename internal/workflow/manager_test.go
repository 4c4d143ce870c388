package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
)

type fakeHandler struct {
	name     string
	prepare  func(ctx context.Context, item *queue.Item) error
	execute  func(ctx context.Context, item *queue.Item) error
	executed int
}

func (h *fakeHandler) Prepare(ctx context.Context, item *queue.Item) error {
	if h.prepare != nil {
		return h.prepare(ctx, item)
	}
	return nil
}

func (h *fakeHandler) Execute(ctx context.Context, item *queue.Item) error {
	h.executed++
	if h.execute != nil {
		return h.execute(ctx, item)
	}
	return nil
}

func (h *fakeHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(h.name)
}

func newTestManager(t *testing.T) (*Manager, *queue.Store, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.HeartbeatInterval = 1
	cfg.Workflow.HeartbeatTimeout = 30

	store, err := queue.Open(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	manager := NewManagerWithNotifier(&cfg, store, logging.NewNop(), nil)
	manager.SkipPreflight()
	return manager, store, &cfg
}

func fullStageSet() (StageSet, map[string]*fakeHandler) {
	handlers := map[string]*fakeHandler{
		"fetch":      {name: "fetch"},
		"extract":    {name: "extract"},
		"transcribe": {name: "transcribe"},
		"export":     {name: "export"},
	}
	return StageSet{
		Fetcher:     handlers["fetch"],
		Extractor:   handlers["extract"],
		Transcriber: handlers["transcribe"],
		Exporter:    handlers["export"],
	}, handlers
}

func TestManagerProcessesItemThroughPipeline(t *testing.T) {
	manager, store, _ := newTestManager(t)
	ctx := context.Background()

	set, handlers := fullStageSet()
	manager.ConfigureStages(set)

	item, err := store.NewURL(ctx, "https://example.com/talk.mp4", "Talk")
	if err != nil {
		t.Fatal(err)
	}

	logger := logging.NewNop()
	for range manager.stages {
		current, err := store.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if err := manager.processItem(ctx, logger, current); err != nil {
			t.Fatalf("processItem(%s): %v", current.Status, err)
		}
	}

	final, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != queue.StatusCompleted {
		t.Errorf("status = %s, want completed", final.Status)
	}
	if final.ProgressPercent != 100 {
		t.Errorf("progress = %v, want 100", final.ProgressPercent)
	}
	for name, handler := range handlers {
		if handler.executed != 1 {
			t.Errorf("handler %s executed %d times, want 1", name, handler.executed)
		}
	}
}

func TestManagerStageFailureMarksItemFailed(t *testing.T) {
	manager, store, _ := newTestManager(t)
	ctx := context.Background()

	set, handlers := fullStageSet()
	handlers["fetch"].execute = func(context.Context, *queue.Item) error {
		return services.Wrap(services.ErrExternalTool, "fetch", "download", "Download failed", errors.New("boom"))
	}
	manager.ConfigureStages(set)

	item, err := store.NewURL(ctx, "https://example.com/talk.mp4", "Talk")
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.processItem(ctx, logging.NewNop(), item); err == nil {
		t.Fatal("expected stage failure to propagate")
	}

	failed, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != queue.StatusFailed {
		t.Errorf("status = %s, want failed", failed.Status)
	}
	if failed.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}

func TestManagerSkipsUnknownStatus(t *testing.T) {
	manager, store, _ := newTestManager(t)
	ctx := context.Background()

	manager.ConfigureStages(StageSet{Fetcher: &fakeHandler{name: "fetch"}})
	item, err := store.NewFile(ctx, "/tmp/talk.mp4", "Talk")
	if err != nil {
		t.Fatal(err)
	}
	// fetched has no configured handler in a fetch-only pipeline
	if err := manager.processItem(ctx, logging.NewNop(), item); err != nil {
		t.Fatalf("processItem: %v", err)
	}
	current, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if current.Status != queue.StatusFetched {
		t.Errorf("status = %s, want fetched untouched", current.Status)
	}
}

func TestManagerStartStop(t *testing.T) {
	manager, store, _ := newTestManager(t)
	ctx := context.Background()

	set, _ := fullStageSet()
	manager.ConfigureStages(set)

	item, err := store.NewURL(ctx, "https://example.com/clip.mp4", "Clip")
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := manager.Start(ctx); err == nil {
		t.Error("second Start accepted")
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		current, err := store.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if current.Status == queue.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("item stuck in %s", current.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}
	manager.Stop()

	summary := manager.Status(ctx)
	if summary.Running {
		t.Error("summary reports running after Stop")
	}
	if summary.QueueStats[queue.StatusCompleted] != 1 {
		t.Errorf("completed count = %d, want 1", summary.QueueStats[queue.StatusCompleted])
	}
	if len(summary.StageHealth) != 4 {
		t.Errorf("stage health entries = %d, want 4", len(summary.StageHealth))
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	manager, _, _ := newTestManager(t)
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("Start accepted without configured stages")
	}
}

func TestDeriveStageLabel(t *testing.T) {
	if got := deriveStageLabel(queue.StatusTranscribing); got != "Transcribing" {
		t.Errorf("label = %q", got)
	}
	if got := deriveStageLabel(queue.StatusCompleted); got != "Completed" {
		t.Errorf("label = %q", got)
	}
}
