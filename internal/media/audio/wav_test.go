package audio

import (
	"bytes"
	"math"
	"testing"
)

func encodeFor(t *testing.T, s Samples) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, s); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	src := Samples{Data: []float32{0, 0.5, -0.5, 0.25}, Rate: 16000, Channels: 1}
	decoded, err := Decode(bytes.NewReader(encodeFor(t, src)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Rate != 16000 || decoded.Channels != 1 {
		t.Fatalf("layout = %d Hz %d ch", decoded.Rate, decoded.Channels)
	}
	if len(decoded.Data) != len(src.Data) {
		t.Fatalf("len = %d", len(decoded.Data))
	}
	for i := range src.Data {
		if math.Abs(float64(decoded.Data[i]-src.Data[i])) > 1.0/32768 {
			t.Errorf("sample %d = %v, want %v", i, decoded.Data[i], src.Data[i])
		}
	}
}

func TestDecodeRejectsNonWave(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("RIFFxxxxJUNKdata"))); err == nil {
		t.Fatal("expected error")
	}
}

func TestDownmixAverages(t *testing.T) {
	stereo := Samples{Data: []float32{1, 0, 0.5, 0.5, -1, 1}, Rate: 44100, Channels: 2}
	mono := Downmix(stereo)
	if mono.Channels != 1 {
		t.Fatalf("channels = %d", mono.Channels)
	}
	want := []float32{0.5, 0.5, 0}
	for i := range want {
		if mono.Data[i] != want[i] {
			t.Errorf("frame %d = %v, want %v", i, mono.Data[i], want[i])
		}
	}
}

func TestResampleHalvesRate(t *testing.T) {
	src := Samples{Data: make([]float32, 32000), Rate: 32000, Channels: 1}
	for i := range src.Data {
		src.Data[i] = float32(i) / float32(len(src.Data))
	}
	out := Resample(src, 16000)
	if out.Rate != 16000 {
		t.Fatalf("rate = %d", out.Rate)
	}
	if len(out.Data) != 16000 {
		t.Fatalf("len = %d", len(out.Data))
	}
	// Linear interpolation should preserve a linear ramp.
	mid := out.Data[8000]
	if math.Abs(float64(mid)-0.5) > 0.001 {
		t.Errorf("midpoint = %v", mid)
	}
}

func TestConditionProducesWhisperLayout(t *testing.T) {
	stereo48k := Samples{Data: make([]float32, 48000*2), Rate: 48000, Channels: 2}
	out := Condition(stereo48k)
	if out.Rate != WhisperSampleRate || out.Channels != 1 {
		t.Fatalf("layout = %d Hz %d ch", out.Rate, out.Channels)
	}
	if len(out.Data) != WhisperSampleRate {
		t.Errorf("len = %d, want %d", len(out.Data), WhisperSampleRate)
	}
	if math.Abs(out.Duration()-1.0) > 0.01 {
		t.Errorf("duration = %v", out.Duration())
	}
}

func TestDecodeSkipsAncillaryChunks(t *testing.T) {
	src := Samples{Data: []float32{0.1, 0.2}, Rate: 16000, Channels: 1}
	encoded := encodeFor(t, src)

	// Splice a LIST chunk between the fmt and data chunks.
	list := append([]byte("LIST"), 0x04, 0x00, 0x00, 0x00)
	list = append(list, []byte("INFO")...)
	var spliced []byte
	spliced = append(spliced, encoded[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, encoded[36:]...)
	// Fix the RIFF size field.
	spliced[4] = byte(len(spliced) - 8)

	decoded, err := Decode(bytes.NewReader(spliced))
	if err != nil {
		t.Fatalf("Decode with LIST chunk: %v", err)
	}
	if len(decoded.Data) != 2 {
		t.Errorf("len = %d", len(decoded.Data))
	}
}
