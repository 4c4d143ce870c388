package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"scribe/internal/media/audio"
	"scribe/internal/transcribe/decode"
)

// GraphRuntime supplies the compiled models and vocabulary the graph
// engine drives through the decode package. A concrete runtime (an
// inference server client or an in-process compiled model) registers
// itself with SetGraphRuntime at startup.
type GraphRuntime interface {
	Encoder() decode.Encoder
	Decoder() decode.Graph
	// Prompt returns the initial token sequence for a run: the
	// start-of-transcript marker plus language and task tokens.
	Prompt(language string, translate bool) []int32
	EndToken() int32
	// MaxPositions is the decoder positional embedding count.
	MaxPositions() int
	// MaxTokens caps generation per run.
	MaxTokens() int
	// Render converts generated tokens into timed segments.
	Render(tokens []int32) ([]Segment, error)
	Close() error
}

var (
	graphRuntimeMu sync.RWMutex
	graphRuntime   func(opts Options) (GraphRuntime, error)
)

// SetGraphRuntime installs the provider backing the "graph" engine.
func SetGraphRuntime(provider func(opts Options) (GraphRuntime, error)) {
	graphRuntimeMu.Lock()
	defer graphRuntimeMu.Unlock()
	graphRuntime = provider
}

// HasGraphRuntime reports whether a provider currently backs the
// "graph" engine.
func HasGraphRuntime() bool {
	graphRuntimeMu.RLock()
	defer graphRuntimeMu.RUnlock()
	return graphRuntime != nil
}

// windowSamples is the audio span one encoder pass consumes: 30 seconds
// at the model sample rate.
const windowSamples = 30 * audio.WhisperSampleRate

func init() {
	Register("graph", newGraphEngine)
}

type graphEngine struct {
	runtime GraphRuntime
	opts    Options
}

func newGraphEngine(opts Options) (Engine, error) {
	graphRuntimeMu.RLock()
	provider := graphRuntime
	graphRuntimeMu.RUnlock()
	if provider == nil {
		return nil, errors.New("graph engine requires a registered runtime; call transcribe.SetGraphRuntime at startup")
	}
	runtime, err := provider(opts)
	if err != nil {
		return nil, fmt.Errorf("graph runtime: %w", err)
	}
	return &graphEngine{runtime: runtime, opts: opts}, nil
}

func (e *graphEngine) Transcribe(ctx context.Context, samples []float32, onSegment func(Segment)) (Result, error) {
	var result Result
	if len(samples) == 0 {
		return result, errors.New("graph: empty audio")
	}

	task, err := decode.NewTask(e.runtime.Encoder(), e.runtime.Decoder(), decode.TaskOptions{
		Prompt:       e.runtime.Prompt(e.opts.Language, e.opts.Translate),
		EndToken:     e.runtime.EndToken(),
		MaxTokens:    e.runtime.MaxTokens(),
		MaxPositions: e.runtime.MaxPositions(),
	})
	if err != nil {
		return result, err
	}

	for start := 0; start < len(samples); start += windowSamples {
		end := min(start+windowSamples, len(samples))
		tokens, err := task.Run(ctx, samples[start:end])
		if err != nil {
			return result, err
		}

		segments, err := e.runtime.Render(tokens)
		if err != nil {
			return result, fmt.Errorf("graph: render tokens: %w", err)
		}
		offset := time.Duration(start) * time.Second / audio.WhisperSampleRate
		for _, segment := range segments {
			segment.Start += offset
			segment.End += offset
			result.Segments = append(result.Segments, segment)
			if onSegment != nil {
				onSegment(segment)
			}
		}
	}
	result.Language = e.opts.Language
	return result, nil
}

func (e *graphEngine) Close() error {
	return e.runtime.Close()
}
