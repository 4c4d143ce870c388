package decode

import (
	"context"
	"errors"
	"fmt"
)

// TaskOptions configure a greedy decoding run.
type TaskOptions struct {
	// Prompt is the initial token sequence (start-of-transcript markers
	// plus language and task tokens).
	Prompt []int32
	// EndToken terminates generation.
	EndToken int32
	// MaxTokens caps the number of generated tokens per run.
	MaxTokens int
	// MaxPositions is the decoder positional embedding count used to
	// distinguish self- from cross-attention cache entries.
	MaxPositions int
}

func (o TaskOptions) validate() error {
	if len(o.Prompt) == 0 {
		return errors.New("decode: empty prompt")
	}
	if o.MaxTokens <= 0 {
		return errors.New("decode: max tokens must be positive")
	}
	if o.MaxPositions <= 0 {
		return errors.New("decode: max positions must be positive")
	}
	return nil
}

// Task owns one full decode: encode audio once, then generate tokens
// greedily until the end token or the token budget.
type Task struct {
	encoder Encoder
	graph   Graph
	opts    TaskOptions
}

// NewTask builds a decoding task.
func NewTask(encoder Encoder, graph Graph, opts TaskOptions) (*Task, error) {
	if encoder == nil || graph == nil {
		return nil, errors.New("decode: encoder and graph required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Task{encoder: encoder, graph: graph, opts: opts}, nil
}

// Run decodes one audio window and returns the generated tokens,
// excluding the prompt and the end token.
func (t *Task) Run(ctx context.Context, samples []float32) ([]int32, error) {
	audio, err := t.encoder.Encode(ctx, samples)
	if err != nil {
		return nil, fmt.Errorf("encode audio: %w", err)
	}

	cache := NewCache(t.opts.MaxPositions)
	inference := NewInference(t.graph, cache, len(t.opts.Prompt))
	defer inference.CleanupCaching()

	tokens := append([]int32(nil), t.opts.Prompt...)
	var generated []int32

	for len(generated) < t.opts.MaxTokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logits, err := inference.Logits(ctx, [][]int32{tokens}, audio)
		if err != nil {
			return nil, err
		}
		if logits.Batch < 1 || logits.Steps < 1 || logits.Width < 1 {
			return nil, fmt.Errorf("decoder returned malformed logits (%d,%d,%d)", logits.Batch, logits.Steps, logits.Width)
		}
		next := int32(logits.ArgmaxLastStep()[0])
		if next == t.opts.EndToken {
			break
		}
		generated = append(generated, next)
		tokens = append(tokens, next)
	}

	return generated, nil
}
