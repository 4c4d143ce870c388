package transcribe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteTranscript persists a transcription result as JSON next to the
// audio it came from. The write goes through a temp file so a crash
// never leaves a truncated transcript behind.
func WriteTranscript(path string, result Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize transcript: %w", err)
	}
	return nil
}

// LoadTranscript reads a transcript written by WriteTranscript.
func LoadTranscript(path string) (Result, error) {
	var result Result
	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("read transcript: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decode transcript %s: %w", filepath.Base(path), err)
	}
	return result, nil
}
