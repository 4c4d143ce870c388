// Package extract pulls the audio track out of a source video with ffmpeg,
// producing the mono 16 kHz WAV the transcription stage consumes.
package extract
