package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	payload := []byte("sample audio payload")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("copied content mismatch")
	}
}

func TestSanitizeBaseName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Intro to Go: Part 1", "Intro to Go_ Part 1"},
		{"  spaced  ", "spaced"},
		{"???", "___"},
		{"", "untitled"},
		{"trailing dots...", "trailing dots"},
	}
	for _, tc := range cases {
		if got := SanitizeBaseName(tc.in); got != tc.want {
			t.Errorf("SanitizeBaseName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.srt")
	if got := UniquePath(path); got != path {
		t.Errorf("fresh path changed: %q", got)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got := UniquePath(path)
	want := filepath.Join(dir, "out-1.srt")
	if got != want {
		t.Errorf("UniquePath = %q, want %q", got, want)
	}
}
