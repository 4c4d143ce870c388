//go:build whispercpp

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

func init() {
	Register("whispercpp", newWhisperCPPEngine)
}

type whisperCPPEngine struct {
	model whisper.Model
	opts  Options
}

func newWhisperCPPEngine(opts Options) (Engine, error) {
	if opts.ModelPath == "" {
		return nil, errors.New("whispercpp: model path required")
	}
	model, err := whisper.New(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: load model: %w", err)
	}
	return &whisperCPPEngine{model: model, opts: opts}, nil
}

func (e *whisperCPPEngine) Transcribe(ctx context.Context, samples []float32, onSegment func(Segment)) (Result, error) {
	var result Result
	if len(samples) == 0 {
		return result, errors.New("whispercpp: empty audio")
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return result, fmt.Errorf("whispercpp: new context: %w", err)
	}

	lang := e.opts.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return result, fmt.Errorf("whispercpp: set language %q: %w", lang, err)
	}
	wctx.SetTranslate(e.opts.Translate)
	wctx.SetTokenTimestamps(true)
	if e.opts.Threads > 0 {
		wctx.SetThreads(uint(e.opts.Threads))
	}
	if e.opts.InitialPrompt != "" {
		wctx.SetInitialPrompt(e.opts.InitialPrompt)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return result, fmt.Errorf("whispercpp: process: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("whispercpp: read segment: %w", err)
		}
		segment := Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
		result.Segments = append(result.Segments, segment)
		if onSegment != nil {
			onSegment(segment)
		}
	}

	result.Language = wctx.Language()
	return result, nil
}

func (e *whisperCPPEngine) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}
