// Package subtitle renders transcription segments as SRT documents and
// validates the result against the probed media duration.
package subtitle

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"scribe/internal/transcribe"
)

// Cue is one subtitle block: a 1-based index, a time range, and text.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// FormatTimestamp renders non-negative seconds as HH:MM:SS,mmm with
// every field zero-padded: 3661.234 -> "01:01:01,234".
func FormatTimestamp(seconds float64) (string, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", fmt.Errorf("invalid timestamp %v", seconds)
	}
	millis := int64(math.Round(seconds * 1000))

	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	secs := millis / 1_000
	millis -= secs * 1_000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis), nil
}

// ParseTimestamp is the inverse of FormatTimestamp. A period is accepted
// in place of the comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

// FromSegments converts transcription segments into sequential cues,
// dropping segments whose text is empty after trimming.
func FromSegments(segments []transcribe.Segment) []Cue {
	cues := make([]Cue, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{
			Index: len(cues) + 1,
			Start: segment.Start,
			End:   segment.End,
			Text:  text,
		})
	}
	return cues
}

// Render produces the full SRT document: index line, time range line,
// text, blank line between blocks.
func Render(cues []Cue) (string, error) {
	var sb strings.Builder
	for _, cue := range cues {
		start, err := FormatTimestamp(cue.Start.Seconds())
		if err != nil {
			return "", fmt.Errorf("cue %d start: %w", cue.Index, err)
		}
		end, err := FormatTimestamp(cue.End.Seconds())
		if err != nil {
			return "", fmt.Errorf("cue %d end: %w", cue.Index, err)
		}
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", cue.Index, start, end, cue.Text)
	}
	return sb.String(), nil
}

// WriteFile renders cues and writes the document atomically.
func WriteFile(path string, cues []Cue) error {
	document, err := Render(cues)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(document), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize srt: %w", err)
	}
	return nil
}
