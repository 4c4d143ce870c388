package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/media/ffprobe"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
)

// Extractor converts fetched videos into transcription-ready WAV files.
type Extractor struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger

	// runner is swappable for tests; nil means exec ffmpeg directly.
	runner func(ctx context.Context, source string, audioIndex int, dest string) error
	probe  func(ctx context.Context, path string) (ffprobe.Result, error)
}

// NewExtractor constructs the extraction stage handler.
func NewExtractor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Extractor {
	return &Extractor{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "extract"),
	}
}

// WithRunner overrides ffmpeg execution (used in tests).
func (e *Extractor) WithRunner(runner func(ctx context.Context, source string, audioIndex int, dest string) error) {
	e.runner = runner
}

// WithProbe overrides ffprobe inspection (used in tests).
func (e *Extractor) WithProbe(probe func(ctx context.Context, path string) (ffprobe.Result, error)) {
	e.probe = probe
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Extracting audio", "Preparing audio extraction")
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("starting extraction preparation", logging.String("source_path", item.SourcePath))
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation, "extract", "validate inputs",
			"No source video present; run fetch before extraction", nil)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(services.ErrNotFound, "extract", "stat source", "Source video missing from staging", err)
	}

	item.SetProgress("Extracting audio", "Inspecting container", 10)
	if err := e.store.Update(ctx, item); err != nil {
		logger.Warn("progress update failed", logging.Error(err))
	}

	probeResult, err := e.inspect(ctx, source)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "probe", "Failed to inspect source video", err)
	}
	audioIndex := probeResult.FirstAudioStream()
	if audioIndex < 0 {
		return services.Wrap(services.ErrValidation, "extract", "select stream", "Source video has no audio stream", nil)
	}
	item.MediaInfoJSON = string(probeResult.RawJSON())
	if item.Language == "" {
		if tag := language.ToISO2(probeResult.AudioLanguage()); tag != "" {
			item.Language = tag
		}
	}

	dest := e.audioPath(item)
	item.SetProgress("Extracting audio", fmt.Sprintf("Extracting stream %d", audioIndex), 40)
	if err := e.store.Update(ctx, item); err != nil {
		logger.Warn("progress update failed", logging.Error(err))
	}

	logger.Info("extracting audio",
		logging.Int("audio_index", audioIndex),
		logging.String("dest", dest),
		logging.Float64("duration_seconds", probeResult.DurationSeconds()),
	)

	if err := e.run(ctx, source, audioIndex, dest); err != nil {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "Audio extraction failed", err)
	}

	item.AudioFile = dest
	item.SetProgressComplete("Extracting audio", fmt.Sprintf("Audio ready: %s", filepath.Base(dest)))
	logger.Info("extraction completed", logging.String("audio_file", dest))
	return nil
}

func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	const name = "extract"
	if _, err := exec.LookPath(e.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg not found: %v", err))
	}
	if _, err := exec.LookPath(e.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffprobe not found: %v", err))
	}
	return stage.Healthy(name)
}

func (e *Extractor) inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	if e.probe != nil {
		return e.probe(ctx, path)
	}
	return ffprobe.Inspect(ctx, e.cfg.FFprobeBinary(), path)
}

func (e *Extractor) run(ctx context.Context, source string, audioIndex int, dest string) error {
	if e.runner != nil {
		return e.runner(ctx, source, audioIndex, dest)
	}
	return ExtractAudio(ctx, e.cfg.FFmpegBinary(), source, audioIndex, dest)
}

func (e *Extractor) audioPath(item *queue.Item) string {
	base := strings.TrimSuffix(filepath.Base(item.SourcePath), filepath.Ext(item.SourcePath))
	if base == "" {
		base = fmt.Sprintf("item-%d", item.ID)
	}
	return filepath.Join(e.cfg.Paths.StagingDir, base+".wav")
}
