package subtitle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/media/ffprobe"
	"scribe/internal/notifications"
	"scribe/internal/preflight"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
	"scribe/internal/transcribe"
)

// Exporter writes the final SRT into the library directory and cleans up
// staging artifacts.
type Exporter struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewExporter constructs the export stage handler.
func NewExporter(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Exporter {
	return &Exporter{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "export"),
		notifier: notifier,
	}
}

func (e *Exporter) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Exporting subtitles", "Preparing subtitle export")
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("starting export preparation", logging.String("transcript_file", item.TranscriptFile))
	return nil
}

func (e *Exporter) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	transcriptFile := strings.TrimSpace(item.TranscriptFile)
	if transcriptFile == "" {
		return services.Wrap(
			services.ErrValidation, "export", "validate inputs",
			"No transcript present; run transcription before export", nil)
	}
	result, err := transcribe.LoadTranscript(transcriptFile)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "export", "load transcript", "Failed to load transcript", err)
	}

	cues := FromSegments(result.Segments)
	if len(cues) == 0 {
		return services.Wrap(services.ErrValidation, "export", "build cues", "Transcript contains no usable segments", nil)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].Start < cues[i-1].Start {
			return services.Wrap(services.ErrValidation, "export", "order cues",
				fmt.Sprintf("Cue %d starts before cue %d", cues[i].Index, cues[i-1].Index), nil)
		}
	}

	item.SetProgress("Exporting subtitles", "Writing SRT file", 40)
	if err := e.store.Update(ctx, item); err != nil {
		logger.Warn("progress update failed", logging.Error(err))
	}

	dest, err := e.subtitlePath(item)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "resolve destination", "Failed to choose subtitle path", err)
	}
	if err := WriteFile(dest, cues); err != nil {
		return services.Wrap(services.ErrExternalTool, "export", "write srt", "Failed to write subtitle file", err)
	}

	if issues := Validate(dest, e.mediaSeconds(item), e.cfg.Subtitles.DurationToleranceSeconds); len(issues) > 0 {
		logger.Warn("subtitle validation issues", logging.String("issues", strings.Join(issues, ", ")))
	}

	item.SubtitleFile = dest
	e.cleanupStaging(item, logger)

	if e.notifier != nil {
		if err := e.notifier.NotifySubtitlesReady(ctx, item.Label(), dest); err != nil {
			logger.Warn("subtitle notification failed", logging.Error(err))
		}
	}

	item.SetProgressComplete("Exporting subtitles", fmt.Sprintf("Subtitles ready: %s", filepath.Base(dest)))
	logger.Info("export completed",
		logging.Int("cues", len(cues)),
		logging.String("subtitle_file", dest),
	)
	return nil
}

func (e *Exporter) HealthCheck(ctx context.Context) stage.Health {
	const name = "export"
	dir := e.cfg.Paths.LibraryDir
	if dir == "" {
		dir = e.cfg.Paths.StagingDir
	}
	if result := preflight.CheckDirectoryAccess("library directory", dir); !result.Passed {
		return stage.Unhealthy(name, result.Detail)
	}
	return stage.Healthy(name)
}

// subtitlePath picks <library>/<sanitized title>.srt, avoiding clobbering
// an existing file.
func (e *Exporter) subtitlePath(item *queue.Item) (string, error) {
	dir := e.cfg.Paths.LibraryDir
	if dir == "" {
		dir = e.cfg.Paths.StagingDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := fileutil.SanitizeBaseName(item.Title)
	if base == "" || base == "untitled" {
		source := item.SourcePath
		if source == "" {
			source = item.AudioFile
		}
		base = fileutil.SanitizeBaseName(strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)))
	}
	return fileutil.UniquePath(filepath.Join(dir, base+".srt")), nil
}

func (e *Exporter) mediaSeconds(item *queue.Item) float64 {
	if item.MediaInfoJSON == "" {
		return 0
	}
	probe, err := ffprobe.Parse([]byte(item.MediaInfoJSON))
	if err != nil {
		return 0
	}
	return probe.DurationSeconds()
}

// cleanupStaging removes intermediate artifacts once the subtitle file
// is in place. Downloaded videos are only removed when they live in the
// staging directory; files the user pointed us at stay put.
func (e *Exporter) cleanupStaging(item *queue.Item, logger *slog.Logger) {
	if !e.cfg.Subtitles.KeepAudio && item.AudioFile != "" {
		if err := os.Remove(item.AudioFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("audio cleanup failed", logging.Error(err))
		}
	}
	if item.SourceURL != "" && item.SourcePath != "" && e.inStaging(item.SourcePath) {
		if err := os.Remove(item.SourcePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("video cleanup failed", logging.Error(err))
		}
	}
}

func (e *Exporter) inStaging(path string) bool {
	rel, err := filepath.Rel(e.cfg.Paths.StagingDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
