package decode

import (
	"context"
	"errors"
	"fmt"
)

// Encoder converts 16 kHz mono samples into audio features.
type Encoder interface {
	Encode(ctx context.Context, samples []float32) (Tensor, error)
}

// StepResult carries one decode step's outputs.
type StepResult struct {
	// Logits has shape (batch, tokens, vocab).
	Logits Tensor
	// States holds the per-module hidden states produced by this step,
	// to be merged into the cache.
	States map[string]Tensor
}

// Graph runs a single decoder step against a compiled model.
type Graph interface {
	Step(ctx context.Context, tokens [][]int32, audio Tensor, past map[string]Tensor) (StepResult, error)
}

// Inference wraps a Graph with key/value caching so that after the first
// forward pass only the newest token is fed per step.
type Inference struct {
	graph              Graph
	cache              *Cache
	initialTokenLength int
}

// NewInference builds an Inference. initialTokenLength is the prompt
// length of the first forward pass; longer token sequences are trimmed
// to their last token.
func NewInference(graph Graph, cache *Cache, initialTokenLength int) *Inference {
	return &Inference{graph: graph, cache: cache, initialTokenLength: initialTokenLength}
}

// Logits runs one decoder step and folds the produced hidden states into
// the cache.
func (inf *Inference) Logits(ctx context.Context, tokens [][]int32, audio Tensor) (Tensor, error) {
	if len(tokens) == 0 {
		return Tensor{}, errors.New("logits: empty token batch")
	}
	if len(tokens[0]) > inf.initialTokenLength {
		trimmed := make([][]int32, len(tokens))
		for i, row := range tokens {
			trimmed[i] = row[len(row)-1:]
		}
		tokens = trimmed
	}

	result, err := inf.graph.Step(ctx, tokens, audio, inf.cache.Snapshot())
	if err != nil {
		return Tensor{}, fmt.Errorf("decoder step: %w", err)
	}
	for module, state := range result.States {
		if _, err := inf.cache.Save(module, state); err != nil {
			return Tensor{}, err
		}
	}
	return result.Logits, nil
}

// CleanupCaching resets the cache to its initial state.
func (inf *Inference) CleanupCaching() {
	inf.cache.Reset()
}

// RearrangeKVCache reorders cached sequences to follow beam selection.
func (inf *Inference) RearrangeKVCache(indices []int) error {
	return inf.cache.Rearrange(indices)
}
