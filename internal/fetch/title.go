package fetch

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveTitle produces a display title from a source URL or file path.
// Separators in the base name become spaces and words are title-cased.
func DeriveTitle(source string) string {
	base, fromPath := sourceBase(source)
	if fromPath {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		title = "Untitled Video"
	}
	return cases.Title(language.Und).String(title)
}

// sourceBase returns the last path element of a URL or file path. The
// second result reports whether it came from a path component; the host
// fallback keeps its dots since they are not file extensions.
func sourceBase(source string) (string, bool) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", false
	}
	if parsed, err := url.Parse(source); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		base := path.Base(parsed.Path)
		if base == "." || base == "/" {
			return parsed.Host, false
		}
		if unescaped, err := url.PathUnescape(base); err == nil {
			return unescaped, true
		}
		return base, true
	}
	return filepath.Base(source), true
}
