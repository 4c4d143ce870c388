package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("file truncated")
	err := Wrap(ErrValidation, "extract", "probe", "unreadable container", base)
	if !errors.Is(err, ErrValidation) {
		t.Fatal("marker lost")
	}
	if !errors.Is(err, base) {
		t.Fatal("cause lost")
	}
	want := "validation error: extract: probe: unreadable container: file truncated"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "fetch", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected transient marker")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(Wrap(ErrConfiguration, "s", "o", "m", nil)) {
		t.Error("configuration errors should not retry")
	}
	if !IsRetryable(Wrap(ErrExternalTool, "s", "o", "m", nil)) {
		t.Error("tool errors should retry")
	}
}
