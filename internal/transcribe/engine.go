package transcribe

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Segment is one timed span of recognized speech.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Result is a full transcription of one audio file.
type Result struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Options configure a transcription run.
type Options struct {
	ModelPath     string
	Language      string // ISO 639-1, empty for autodetect
	Translate     bool   // translate to English instead of transcribing
	Threads       int    // 0 uses all cores
	BeamSize      int
	BestOf        int
	InitialPrompt string
}

// Engine produces transcripts from 16 kHz mono float32 samples.
type Engine interface {
	// Transcribe processes the whole clip. onSegment, when non-nil, is
	// invoked as segments become available.
	Transcribe(ctx context.Context, samples []float32, onSegment func(Segment)) (Result, error)
	Close() error
}

// Factory builds an engine for the given options.
type Factory func(opts Options) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register installs an engine factory under a name. Later registrations
// for the same name win, which lets tests swap in fakes.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewEngine constructs the named engine.
func NewEngine(name string, opts Options) (Engine, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown transcription engine %q (known: %v)", name, EngineNames())
	}
	return factory(opts)
}

// EngineNames lists registered engines in sorted order.
func EngineNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
