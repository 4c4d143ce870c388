//go:build !whispercpp

package transcribe

import "errors"

// Builds without the whispercpp tag still accept engine = "whispercpp"
// in config but fail with a clear message at construction time instead
// of at first use.
func init() {
	Register("whispercpp", func(Options) (Engine, error) {
		return nil, errors.New("whispercpp engine requires building with -tags whispercpp (needs whisper.cpp via cgo)")
	})
}
