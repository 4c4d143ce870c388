package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/media/audio"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
)

// Transcriber runs the configured engine over extracted audio and
// persists the transcript as JSON in the staging directory.
type Transcriber struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service

	// newEngine is swappable for tests; nil uses the registry.
	newEngine func(name string, opts Options) (Engine, error)
	// loadAudio is swappable for tests; nil reads the WAV from disk.
	loadAudio func(path string) (audio.Samples, error)
}

// NewTranscriber constructs the transcription stage handler.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Transcriber {
	return &Transcriber{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "transcribe"),
		notifier: notifier,
	}
}

// WithEngineFactory overrides engine construction (used in tests).
func (t *Transcriber) WithEngineFactory(factory func(name string, opts Options) (Engine, error)) {
	t.newEngine = factory
}

// WithAudioLoader overrides audio loading (used in tests).
func (t *Transcriber) WithAudioLoader(loader func(path string) (audio.Samples, error)) {
	t.loadAudio = loader
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Transcribing", "Preparing transcription")
	logger := logging.WithContext(ctx, t.logger)
	logger.Info("starting transcription preparation",
		logging.String("audio_file", item.AudioFile),
		logging.String("engine", t.cfg.Whisper.Engine),
	)
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	audioFile := strings.TrimSpace(item.AudioFile)
	if audioFile == "" {
		return services.Wrap(
			services.ErrValidation, "transcribe", "validate inputs",
			"No extracted audio present; run extraction before transcription", nil)
	}
	if _, err := os.Stat(audioFile); err != nil {
		return services.Wrap(services.ErrNotFound, "transcribe", "stat audio", "Extracted audio missing from staging", err)
	}

	item.SetProgress("Transcribing", "Loading audio", 5)
	if err := t.store.Update(ctx, item); err != nil {
		logger.Warn("progress update failed", logging.Error(err))
	}

	samples, err := t.load(audioFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "load audio", "Failed to decode extracted audio", err)
	}
	clipSeconds := samples.Duration()

	opts := t.options(item)
	engine, err := t.engine(opts)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "init engine",
			fmt.Sprintf("Failed to initialize %s engine", t.cfg.Whisper.Engine), err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("engine close failed", logging.Error(err))
		}
	}()

	if t.notifier != nil {
		if err := t.notifier.NotifyTranscriptionStarted(ctx, item.Label()); err != nil {
			logger.Warn("transcription notification failed", logging.Error(err))
		}
	}
	logger.Info("transcribing audio",
		logging.String("engine", t.cfg.Whisper.Engine),
		logging.String("language", opts.Language),
		logging.Float64("duration_seconds", clipSeconds),
	)

	lastPercent := 5.0
	onSegment := func(seg Segment) {
		percent := 5.0
		if clipSeconds > 0 {
			percent += 90 * seg.End.Seconds() / clipSeconds
		}
		if percent > 95 {
			percent = 95
		}
		if percent-lastPercent < 5 {
			return
		}
		lastPercent = percent
		item.SetProgress("Transcribing", fmt.Sprintf("Transcribed %s of audio", seg.End.Round(time.Second)), percent)
		if err := t.store.Update(ctx, item); err != nil {
			logger.Warn("progress update failed", logging.Error(err))
		}
	}

	result, err := engine.Transcribe(ctx, samples.Data, onSegment)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "transcribe", "run engine", "Transcription interrupted", err)
		}
		return services.Wrap(services.ErrExternalTool, "transcribe", "run engine", "Transcription failed", err)
	}
	if len(result.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "transcribe", "collect segments", "Transcription produced no segments", nil)
	}
	if result.Language != "" && result.Language != "auto" {
		item.Language = result.Language
	}

	transcriptFile := t.transcriptPath(audioFile)
	if err := WriteTranscript(transcriptFile, result); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribe", "write transcript", "Failed to persist transcript", err)
	}
	item.TranscriptFile = transcriptFile

	if t.notifier != nil {
		if err := t.notifier.NotifyTranscriptionCompleted(ctx, item.Label(), item.Language); err != nil {
			logger.Warn("transcription notification failed", logging.Error(err))
		}
	}
	item.SetProgressComplete("Transcribing", fmt.Sprintf("Transcript ready: %d segments", len(result.Segments)))
	logger.Info("transcription completed",
		logging.Int("segments", len(result.Segments)),
		logging.String("language", item.Language),
		logging.String("transcript_file", transcriptFile),
	)
	return nil
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcribe"
	if !slices.Contains(EngineNames(), t.cfg.Whisper.Engine) {
		return stage.Unhealthy(name, fmt.Sprintf("unknown engine %q", t.cfg.Whisper.Engine))
	}
	if t.cfg.Whisper.Engine == "graph" && !HasGraphRuntime() {
		return stage.Unhealthy(name, "graph engine has no registered runtime")
	}
	if t.cfg.Whisper.ModelPath == "" {
		return stage.Unhealthy(name, "no model path configured")
	}
	if info, err := os.Stat(t.cfg.Whisper.ModelPath); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("model file: %v", err))
	} else if info.IsDir() {
		return stage.Unhealthy(name, "model path is a directory")
	}
	return stage.Healthy(name)
}

func (t *Transcriber) load(path string) (audio.Samples, error) {
	if t.loadAudio != nil {
		return t.loadAudio(path)
	}
	return audio.Load(path)
}

func (t *Transcriber) options(item *queue.Item) Options {
	lang := item.Language
	if lang == "" {
		lang = t.cfg.Whisper.Language
	}
	return Options{
		ModelPath:     t.cfg.Whisper.ModelPath,
		Language:      lang,
		Translate:     t.cfg.Whisper.Task == "translate",
		Threads:       t.cfg.Whisper.Threads,
		BeamSize:      t.cfg.Whisper.BeamSize,
		BestOf:        t.cfg.Whisper.BestOf,
		InitialPrompt: t.cfg.Whisper.InitialPrompt,
	}
}

func (t *Transcriber) engine(opts Options) (Engine, error) {
	if t.newEngine != nil {
		return t.newEngine(t.cfg.Whisper.Engine, opts)
	}
	return NewEngine(t.cfg.Whisper.Engine, opts)
}

func (t *Transcriber) transcriptPath(audioFile string) string {
	base := strings.TrimSuffix(audioFile, filepath.Ext(audioFile))
	return base + ".transcript.json"
}
