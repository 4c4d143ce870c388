// Package audio decodes WAV files and conditions samples for the
// transcription engine: 16 kHz mono float32 in [-1, 1].
package audio
