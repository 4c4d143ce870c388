package subtitle

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// CountCues returns the number of non-empty blocks in an SRT file.
func CountCues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, nil
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count, nil
}

// Bounds returns the earliest cue start and latest cue end in seconds.
func Bounds(path string) (float64, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read srt: %w", err)
	}
	first := math.Inf(1)
	var last float64
	found := false
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		if start, err := ParseTimestamp(parts[0]); err == nil {
			if start.Seconds() < first {
				first = start.Seconds()
			}
			found = true
		}
		if end, err := ParseTimestamp(parts[1]); err == nil {
			if end.Seconds() > last {
				last = end.Seconds()
			}
		}
	}
	if !found {
		return 0, last, nil
	}
	return first, last, nil
}

// CheckDuration compares the last cue end against the probed media
// duration. It returns the delta in seconds and whether the mismatch
// exceeds the tolerance.
func CheckDuration(path string, mediaSeconds, toleranceSeconds float64) (float64, bool, error) {
	if mediaSeconds <= 0 {
		return 0, false, nil
	}
	_, last, err := Bounds(path)
	if err != nil {
		return 0, false, err
	}
	if last <= 0 {
		return 0, false, nil
	}
	delta := mediaSeconds - last
	if math.Abs(delta) <= toleranceSeconds {
		return delta, false, nil
	}
	return delta, true, nil
}

// Validate checks a written SRT file for format issues. An empty slice
// means validation passed.
func Validate(path string, mediaSeconds, toleranceSeconds float64) []string {
	var issues []string

	cues, err := CountCues(path)
	if err != nil {
		issues = append(issues, fmt.Sprintf("read_error: %v", err))
		return issues
	}
	if cues == 0 {
		issues = append(issues, "empty_subtitle_file")
		return issues
	}

	first, last, err := Bounds(path)
	if err != nil {
		issues = append(issues, fmt.Sprintf("timestamp_parse_error: %v", err))
	} else if first == 0 && last == 0 {
		issues = append(issues, "no_valid_timestamps")
	}

	if mediaSeconds > 0 {
		delta, mismatch, err := CheckDuration(path, mediaSeconds, toleranceSeconds)
		if err != nil {
			issues = append(issues, fmt.Sprintf("duration_check_error: %v", err))
		} else if mismatch {
			issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", delta))
		}
	}

	return issues
}
