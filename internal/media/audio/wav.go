package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WhisperSampleRate is the sample rate the transcription models expect.
const WhisperSampleRate = 16000

// Samples holds decoded PCM audio.
type Samples struct {
	Data     []float32
	Rate     int
	Channels int
}

// Duration returns the clip length in seconds.
func (s Samples) Duration() float64 {
	if s.Rate <= 0 || s.Channels <= 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.Rate*s.Channels)
}

// Load reads a WAV file and returns 16 kHz mono samples regardless of the
// file's original layout.
func Load(path string) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return Samples{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	samples, err := Decode(f)
	if err != nil {
		return Samples{}, fmt.Errorf("decode wav %s: %w", path, err)
	}
	return Condition(samples), nil
}

// Condition downmixes to mono and resamples to WhisperSampleRate.
func Condition(s Samples) Samples {
	if s.Channels > 1 {
		s = Downmix(s)
	}
	if s.Rate != WhisperSampleRate {
		s = Resample(s, WhisperSampleRate)
	}
	return s
}

// Decode reads a RIFF/WAVE stream containing 16-bit PCM data.
func Decode(r io.Reader) (Samples, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Samples{}, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Samples{}, errors.New("not a RIFF/WAVE stream")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		haveFormat    bool
	)

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Samples{}, errors.New("missing data chunk")
			}
			return Samples{}, fmt.Errorf("read chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return Samples{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return Samples{}, errors.New("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			if format != 1 {
				return Samples{}, fmt.Errorf("unsupported wav format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if bitsPerSample != 16 {
				return Samples{}, fmt.Errorf("unsupported sample width %d bits (want 16)", bitsPerSample)
			}
			if channels <= 0 || sampleRate <= 0 {
				return Samples{}, errors.New("invalid fmt chunk")
			}
			haveFormat = true
		case "data":
			if !haveFormat {
				return Samples{}, errors.New("data chunk before fmt chunk")
			}
			raw := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, raw); err != nil {
				return Samples{}, fmt.Errorf("read data chunk: %w", err)
			}
			count := len(raw) / 2
			data := make([]float32, count)
			for i := 0; i < count; i++ {
				v := int16(binary.LittleEndian.Uint16(raw[2*i : 2*i+2]))
				data[i] = float32(v) / 32768.0
			}
			return Samples{Data: data, Rate: sampleRate, Channels: channels}, nil
		default:
			// Skip ancillary chunks (LIST, fact, cue, ...). Chunk bodies are
			// word-aligned, so odd sizes carry a pad byte.
			skip := int64(chunkSize)
			if chunkSize%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Samples{}, fmt.Errorf("skip %s chunk: %w", chunkID, err)
			}
		}
	}
}

// Downmix averages interleaved channels into mono.
func Downmix(s Samples) Samples {
	if s.Channels <= 1 {
		return s
	}
	frames := len(s.Data) / s.Channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < s.Channels; c++ {
			sum += s.Data[i*s.Channels+c]
		}
		mono[i] = sum / float32(s.Channels)
	}
	return Samples{Data: mono, Rate: s.Rate, Channels: 1}
}

// Resample converts mono samples to the target rate using linear
// interpolation.
func Resample(s Samples, targetRate int) Samples {
	if s.Rate == targetRate || s.Rate <= 0 || len(s.Data) == 0 {
		return Samples{Data: s.Data, Rate: targetRate, Channels: s.Channels}
	}
	duration := float64(len(s.Data)) / float64(s.Rate)
	outLen := int(duration * float64(targetRate))
	if outLen <= 0 {
		return Samples{Data: nil, Rate: targetRate, Channels: s.Channels}
	}
	out := make([]float32, outLen)
	ratio := float64(s.Rate) / float64(targetRate)
	for i := range out {
		pos := float64(i) * ratio
		left := int(pos)
		if left >= len(s.Data)-1 {
			out[i] = s.Data[len(s.Data)-1]
			continue
		}
		frac := float32(pos - float64(left))
		out[i] = s.Data[left]*(1-frac) + s.Data[left+1]*frac
	}
	return Samples{Data: out, Rate: targetRate, Channels: s.Channels}
}

// EncodeWAV writes mono float32 samples as a 16-bit PCM WAV stream.
// Used by tests and the one-shot transcode path.
func EncodeWAV(w io.Writer, s Samples) error {
	if s.Channels == 0 {
		s.Channels = 1
	}
	dataSize := len(s.Data) * 2
	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1)
	binary.LittleEndian.PutUint16(header[22:24], uint16(s.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(s.Rate))
	byteRate := s.Rate * s.Channels * 2
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(s.Channels*2))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	buf := make([]byte, 2)
	for _, v := range s.Data {
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		binary.LittleEndian.PutUint16(buf, uint16(int16(v*32767)))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
