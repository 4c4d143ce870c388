// Package transcribe turns conditioned audio into timed text segments.
//
// Engines are pluggable: "whispercpp" runs whisper.cpp in-process (cgo,
// enabled with the whispercpp build tag), "graph" drives a compiled
// encoder/decoder graph through the decode package. The stage handler
// picks the engine from configuration and persists the transcript next
// to the extracted audio.
package transcribe
