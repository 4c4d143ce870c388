package ffprobe

import "testing"

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2, "tags": {"language": "eng"}}
  ],
  "format": {"filename": "talk.mp4", "nb_streams": 2, "duration": "125.500000", "size": "1048576", "format_name": "mov,mp4"}
}`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Errorf("audio streams = %d", result.AudioStreamCount())
	}
	if result.FirstAudioStream() != 1 {
		t.Errorf("first audio index = %d", result.FirstAudioStream())
	}
	if result.AudioLanguage() != "eng" {
		t.Errorf("audio language = %q", result.AudioLanguage())
	}
	if result.DurationSeconds() != 125.5 {
		t.Errorf("duration = %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1048576 {
		t.Errorf("size = %d", result.SizeBytes())
	}
}

func TestParseNoAudio(t *testing.T) {
	result, err := Parse([]byte(`{"streams":[{"index":0,"codec_type":"video"}],"format":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.FirstAudioStream() != -1 {
		t.Errorf("first audio = %d, want -1", result.FirstAudioStream())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
