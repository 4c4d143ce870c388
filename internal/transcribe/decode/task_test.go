package decode

import (
	"context"
	"testing"
)

// scriptGraph emits a fixed token sequence one step at a time and records
// what it was fed.
type scriptGraph struct {
	script    []int32
	vocab     int
	stateDim  int
	step      int
	fedTokens [][]int32
	fedPast   []int
}

func (g *scriptGraph) Step(_ context.Context, tokens [][]int32, _ Tensor, past map[string]Tensor) (StepResult, error) {
	g.fedTokens = append(g.fedTokens, append([]int32(nil), tokens[0]...))
	g.fedPast = append(g.fedPast, len(past))

	logits := NewTensor(len(tokens), 1, g.vocab)
	logits.Set(0, 0, int(g.script[g.step]), 1)
	g.step++

	states := map[string]Tensor{
		"k_0": filled(len(tokens), 1, g.stateDim, float32(g.step)),
		"v_0": filled(len(tokens), 1, g.stateDim, float32(g.step)),
	}
	return StepResult{Logits: logits, States: states}, nil
}

type fixedEncoder struct{ features Tensor }

func (e fixedEncoder) Encode(context.Context, []float32) (Tensor, error) {
	return e.features, nil
}

func TestTaskRunGreedyLoop(t *testing.T) {
	const eot = int32(9)
	graph := &scriptGraph{script: []int32{4, 5, 6, eot}, vocab: 10, stateDim: 2}
	task, err := NewTask(fixedEncoder{features: NewTensor(1, 8, 2)}, graph, TaskOptions{
		Prompt:       []int32{1, 2, 3},
		EndToken:     eot,
		MaxTokens:    16,
		MaxPositions: 448,
	})
	if err != nil {
		t.Fatal(err)
	}

	tokens, err := task.Run(context.Background(), make([]float32, 16000))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int32{4, 5, 6}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", tokens, want)
		}
	}

	// First pass feeds the whole prompt with an empty cache; later passes
	// feed only the newest token against a populated cache.
	if len(graph.fedTokens[0]) != 3 {
		t.Errorf("first step fed %d tokens", len(graph.fedTokens[0]))
	}
	if graph.fedPast[0] != 0 {
		t.Errorf("first step fed %d cache entries", graph.fedPast[0])
	}
	for step := 1; step < len(graph.fedTokens); step++ {
		if len(graph.fedTokens[step]) != 1 {
			t.Errorf("step %d fed %d tokens, want 1", step, len(graph.fedTokens[step]))
		}
		if graph.fedPast[step] != 2 {
			t.Errorf("step %d fed %d cache entries, want 2", step, graph.fedPast[step])
		}
	}
}

func TestTaskRunHonorsTokenBudget(t *testing.T) {
	graph := &scriptGraph{script: []int32{1, 1, 1, 1, 1, 1, 1, 1}, vocab: 4, stateDim: 1}
	task, err := NewTask(fixedEncoder{features: NewTensor(1, 2, 1)}, graph, TaskOptions{
		Prompt:       []int32{0},
		EndToken:     3,
		MaxTokens:    5,
		MaxPositions: 448,
	})
	if err != nil {
		t.Fatal(err)
	}
	tokens, err := task.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 5 {
		t.Errorf("generated %d tokens, want 5", len(tokens))
	}
}

func TestTaskRunRespectsCancellation(t *testing.T) {
	graph := &scriptGraph{script: make([]int32, 100), vocab: 4, stateDim: 1}
	task, err := NewTask(fixedEncoder{features: NewTensor(1, 2, 1)}, graph, TaskOptions{
		Prompt:       []int32{0},
		EndToken:     3,
		MaxTokens:    100,
		MaxPositions: 448,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := task.Run(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNewTaskValidation(t *testing.T) {
	encoder := fixedEncoder{}
	graph := &scriptGraph{vocab: 2}
	if _, err := NewTask(nil, graph, TaskOptions{Prompt: []int32{0}, MaxTokens: 1, MaxPositions: 1}); err == nil {
		t.Error("nil encoder accepted")
	}
	if _, err := NewTask(encoder, graph, TaskOptions{MaxTokens: 1, MaxPositions: 1}); err == nil {
		t.Error("empty prompt accepted")
	}
	if _, err := NewTask(encoder, graph, TaskOptions{Prompt: []int32{0}, MaxPositions: 1}); err == nil {
		t.Error("zero token budget accepted")
	}
}

func TestInferenceRearrangeFollowsBeams(t *testing.T) {
	cache := NewCache(448)
	tensor := NewTensor(2, 1, 1)
	tensor.Set(0, 0, 0, 1)
	tensor.Set(1, 0, 0, 2)
	if _, err := cache.Save("k_0", tensor); err != nil {
		t.Fatal(err)
	}
	inference := NewInference(&scriptGraph{vocab: 2}, cache, 1)
	if err := inference.RearrangeKVCache([]int{1, 1}); err != nil {
		t.Fatal(err)
	}
	got, _ := cache.Get("k_0")
	if got.At(0, 0, 0) != 2 || got.At(1, 0, 0) != 2 {
		t.Errorf("rearranged cache = %v", got.Data)
	}
}
