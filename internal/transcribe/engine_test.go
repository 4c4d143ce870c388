package transcribe_test

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"scribe/internal/media/audio"
	"scribe/internal/transcribe"
	"scribe/internal/transcribe/decode"
)

type fakeEngine struct {
	segments []transcribe.Segment
	language string
	closed   bool
}

func (e *fakeEngine) Transcribe(_ context.Context, _ []float32, onSegment func(transcribe.Segment)) (transcribe.Result, error) {
	for _, seg := range e.segments {
		if onSegment != nil {
			onSegment(seg)
		}
	}
	return transcribe.Result{Segments: e.segments, Language: e.language}, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

func TestRegistryLookup(t *testing.T) {
	transcribe.Register("fake", func(opts transcribe.Options) (transcribe.Engine, error) {
		return &fakeEngine{language: opts.Language}, nil
	})

	engine, err := transcribe.NewEngine("fake", transcribe.Options{Language: "de"})
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Transcribe(context.Background(), []float32{0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Language != "de" {
		t.Errorf("language = %q, want de", result.Language)
	}

	if _, err := transcribe.NewEngine("bogus", transcribe.Options{}); err == nil {
		t.Error("unknown engine accepted")
	}
	if !slices.Contains(transcribe.EngineNames(), "fake") {
		t.Errorf("EngineNames() = %v, missing fake", transcribe.EngineNames())
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.transcript.json")
	want := transcribe.Result{
		Segments: []transcribe.Segment{
			{Start: 0, End: 2 * time.Second, Text: "Hello there."},
			{Start: 2 * time.Second, End: 5 * time.Second, Text: "General remarks."},
		},
		Language: "en",
	}
	if err := transcribe.WriteTranscript(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := transcribe.LoadTranscript(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Language != want.Language || len(got.Segments) != len(want.Segments) {
		t.Fatalf("loaded %+v, want %+v", got, want)
	}
	for i := range want.Segments {
		if got.Segments[i] != want.Segments[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got.Segments[i], want.Segments[i])
		}
	}
}

func TestLoadTranscriptMissing(t *testing.T) {
	if _, err := transcribe.LoadTranscript(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing transcript accepted")
	}
}

// scriptedGraph emits a fixed token per step, selecting it via the
// last-step argmax the greedy loop performs.
type scriptedGraph struct {
	script []int32
	step   int
}

func (g *scriptedGraph) Step(_ context.Context, tokens [][]int32, _ decode.Tensor, _ map[string]decode.Tensor) (decode.StepResult, error) {
	logits := decode.NewTensor(len(tokens), 1, 16)
	logits.Set(0, 0, int(g.script[g.step]), 1)
	g.step++
	states := map[string]decode.Tensor{"k_0": decode.NewTensor(len(tokens), 1, 2)}
	return decode.StepResult{Logits: logits, States: states}, nil
}

type stubEncoder struct{}

func (stubEncoder) Encode(context.Context, []float32) (decode.Tensor, error) {
	return decode.NewTensor(1, 4, 2), nil
}

// recordingEncoder notes the sample count of every Encode call.
type recordingEncoder struct {
	sizes []int
}

func (e *recordingEncoder) Encode(_ context.Context, samples []float32) (decode.Tensor, error) {
	e.sizes = append(e.sizes, len(samples))
	return decode.NewTensor(1, 4, 2), nil
}

type fakeRuntime struct {
	graph      *scriptedGraph
	encoder    decode.Encoder
	promptLang string
	closed     bool
}

func (r *fakeRuntime) Encoder() decode.Encoder {
	if r.encoder != nil {
		return r.encoder
	}
	return stubEncoder{}
}

func (r *fakeRuntime) Decoder() decode.Graph { return r.graph }

func (r *fakeRuntime) Prompt(language string, translate bool) []int32 {
	r.promptLang = language
	return []int32{1}
}

func (r *fakeRuntime) EndToken() int32   { return 2 }
func (r *fakeRuntime) MaxPositions() int { return 448 }
func (r *fakeRuntime) MaxTokens() int    { return 32 }

func (r *fakeRuntime) Render(tokens []int32) ([]transcribe.Segment, error) {
	segments := make([]transcribe.Segment, len(tokens))
	for i, token := range tokens {
		segments[i] = transcribe.Segment{
			Start: time.Duration(i) * time.Second,
			End:   time.Duration(i+1) * time.Second,
			Text:  fmt.Sprintf("token-%d", token),
		}
	}
	return segments, nil
}

func (r *fakeRuntime) Close() error {
	r.closed = true
	return nil
}

func TestGraphEngine(t *testing.T) {
	transcribe.SetGraphRuntime(nil)
	if _, err := transcribe.NewEngine("graph", transcribe.Options{}); err == nil {
		t.Fatal("graph engine constructed without a runtime")
	}

	runtime := &fakeRuntime{graph: &scriptedGraph{script: []int32{10, 11, 2}}}
	transcribe.SetGraphRuntime(func(transcribe.Options) (transcribe.GraphRuntime, error) {
		return runtime, nil
	})
	t.Cleanup(func() { transcribe.SetGraphRuntime(nil) })

	engine, err := transcribe.NewEngine("graph", transcribe.Options{Language: "en"})
	if err != nil {
		t.Fatal(err)
	}

	var streamed []transcribe.Segment
	result, err := engine.Transcribe(context.Background(), make([]float32, 16000), func(seg transcribe.Segment) {
		streamed = append(streamed, seg)
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("segments = %+v, want 2", result.Segments)
	}
	if result.Segments[0].Text != "token-10" || result.Segments[1].Text != "token-11" {
		t.Errorf("segments = %+v", result.Segments)
	}
	if len(streamed) != 2 {
		t.Errorf("streamed %d segments, want 2", len(streamed))
	}
	if runtime.promptLang != "en" {
		t.Errorf("prompt language = %q, want en", runtime.promptLang)
	}

	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}
	if !runtime.closed {
		t.Error("runtime not closed")
	}
}

func TestGraphEngineDecodesInThirtySecondWindows(t *testing.T) {
	encoder := &recordingEncoder{}
	runtime := &fakeRuntime{
		graph:   &scriptedGraph{script: []int32{10, 2, 11, 2, 12, 2}},
		encoder: encoder,
	}
	transcribe.SetGraphRuntime(func(transcribe.Options) (transcribe.GraphRuntime, error) {
		return runtime, nil
	})
	t.Cleanup(func() { transcribe.SetGraphRuntime(nil) })

	engine, err := transcribe.NewEngine("graph", transcribe.Options{Language: "en"})
	if err != nil {
		t.Fatal(err)
	}

	const windowLen = 30 * audio.WhisperSampleRate
	result, err := engine.Transcribe(context.Background(), make([]float32, 3*windowLen), nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if len(encoder.sizes) != 3 {
		t.Fatalf("encoder calls = %d, want 3", len(encoder.sizes))
	}
	for i, size := range encoder.sizes {
		if size != windowLen {
			t.Errorf("window %d size = %d, want %d", i, size, windowLen)
		}
	}

	if len(result.Segments) != 3 {
		t.Fatalf("segments = %+v, want 3", result.Segments)
	}
	wantStarts := []time.Duration{0, 30 * time.Second, 60 * time.Second}
	wantTexts := []string{"token-10", "token-11", "token-12"}
	for i, segment := range result.Segments {
		if segment.Start != wantStarts[i] {
			t.Errorf("segment %d start = %s, want %s", i, segment.Start, wantStarts[i])
		}
		if segment.End != wantStarts[i]+time.Second {
			t.Errorf("segment %d end = %s, want %s", i, segment.End, wantStarts[i]+time.Second)
		}
		if segment.Text != wantTexts[i] {
			t.Errorf("segment %d text = %q, want %q", i, segment.Text, wantTexts[i])
		}
	}
}

func TestGraphEngineHandlesShortFinalWindow(t *testing.T) {
	encoder := &recordingEncoder{}
	runtime := &fakeRuntime{
		graph:   &scriptedGraph{script: []int32{10, 2, 11, 2}},
		encoder: encoder,
	}
	transcribe.SetGraphRuntime(func(transcribe.Options) (transcribe.GraphRuntime, error) {
		return runtime, nil
	})
	t.Cleanup(func() { transcribe.SetGraphRuntime(nil) })

	engine, err := transcribe.NewEngine("graph", transcribe.Options{})
	if err != nil {
		t.Fatal(err)
	}

	const windowLen = 30 * audio.WhisperSampleRate
	if _, err := engine.Transcribe(context.Background(), make([]float32, windowLen+audio.WhisperSampleRate), nil); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(encoder.sizes) != 2 {
		t.Fatalf("encoder calls = %d, want 2", len(encoder.sizes))
	}
	if encoder.sizes[0] != windowLen || encoder.sizes[1] != audio.WhisperSampleRate {
		t.Errorf("window sizes = %v", encoder.sizes)
	}
}
