package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/preflight"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
)

// Fetcher downloads the source video for pending queue items.
type Fetcher struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	downloader *Downloader
	notifier   notifications.Service
}

// NewFetcher constructs the fetch stage handler using default dependencies.
func NewFetcher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Fetcher {
	return NewFetcherWithDependencies(cfg, store, logger, NewDownloader(cfg.Download), notifications.NewService(cfg))
}

// NewFetcherWithDependencies allows injecting collaborators (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, downloader *Downloader, notifier notifications.Service) *Fetcher {
	return &Fetcher{
		store:      store,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "fetch"),
		downloader: downloader,
		notifier:   notifier,
	}
}

func (f *Fetcher) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Fetching", "Preparing download")
	if strings.TrimSpace(item.Title) == "" {
		item.Title = DeriveTitle(item.SourceURL)
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("starting fetch preparation", logging.String("source_url", item.SourceURL))
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)

	source := strings.TrimSpace(item.SourceURL)
	if source == "" {
		return services.Wrap(
			services.ErrValidation, "fetch", "validate inputs",
			"No source URL present; add items with a URL or use add-file for local videos", nil)
	}

	if f.notifier != nil {
		if err := f.notifier.NotifyDownloadStarted(ctx, item.Label()); err != nil {
			logger.Warn("download notification failed", logging.Error(err))
		}
	}

	var lastPercent float64
	progress := func(copied, total int64) {
		if total <= 0 {
			return
		}
		percent := float64(copied) / float64(total) * 100
		if percent-lastPercent < 5 && percent < 100 {
			return
		}
		lastPercent = percent
		item.SetProgress("Fetching", fmt.Sprintf("Downloading %s", item.Label()), percent)
		if err := f.store.Update(ctx, item); err != nil {
			logger.Warn("progress update failed", logging.Error(err))
		}
	}

	result, err := f.downloader.Download(ctx, source, f.cfg.Paths.StagingDir, progress)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "download", "Failed to download source video", err)
	}

	item.SourcePath = result.Path
	item.SetProgressComplete("Fetching", fmt.Sprintf("Downloaded %d bytes", result.Bytes))
	logger.Info("download completed",
		logging.String("source_path", result.Path),
		logging.Int64("bytes", result.Bytes),
	)

	if f.notifier != nil {
		if err := f.notifier.NotifyDownloadCompleted(ctx, item.Label()); err != nil {
			logger.Warn("download notification failed", logging.Error(err))
		}
	}
	return nil
}

func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	const name = "fetch"
	if f.downloader == nil {
		return stage.Unhealthy(name, "downloader unavailable")
	}
	if result := preflight.CheckDirectoryAccess("Staging directory", f.cfg.Paths.StagingDir); !result.Passed {
		return stage.Unhealthy(name, result.Detail)
	}
	return stage.Healthy(name)
}
