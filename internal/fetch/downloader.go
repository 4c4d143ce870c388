package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/fileutil"
)

// Downloader retrieves remote videos into a staging directory.
type Downloader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewDownloader builds a Downloader from the download config section.
func NewDownloader(cfg config.Download) *Downloader {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
	}
}

// Progress reports bytes copied so far and the total when known (0 otherwise).
type Progress func(copied, total int64)

// Result describes a completed download.
type Result struct {
	Path  string
	Bytes int64
}

// Download fetches sourceURL into destDir and returns the stored file path.
// The file name comes from the URL path, falling back to the Content-Type
// extension when the URL has none.
func (d *Downloader) Download(ctx context.Context, sourceURL, destDir string, progress Progress) (Result, error) {
	var result Result

	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return result, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return result, fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return result, fmt.Errorf("ensure staging dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return result, fmt.Errorf("build request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return result, fmt.Errorf("download: server returned %s", resp.Status)
	}

	total := resp.ContentLength
	if d.maxBytes > 0 && total > d.maxBytes {
		return result, fmt.Errorf("download: content length %d exceeds limit %d", total, d.maxBytes)
	}

	name := downloadFileName(parsed, resp.Header.Get("Content-Type"))
	destPath := fileutil.UniquePath(filepath.Join(destDir, name))

	tmpPath := destPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return result, fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		_ = out.Close()
		_ = os.Remove(tmpPath)
	}()

	reader := io.Reader(resp.Body)
	if d.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, d.maxBytes+1)
	}

	copied, err := copyWithProgress(ctx, out, reader, total, progress)
	if err != nil {
		return result, fmt.Errorf("download: %w", err)
	}
	if d.maxBytes > 0 && copied > d.maxBytes {
		return result, fmt.Errorf("download: body exceeds limit %d bytes", d.maxBytes)
	}
	if err := out.Close(); err != nil {
		return result, fmt.Errorf("flush staging file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return result, fmt.Errorf("finalize download: %w", err)
	}

	result.Path = destPath
	result.Bytes = copied
	return result, nil
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress Progress) (int64, error) {
	buf := make([]byte, 256*1024)
	var copied int64
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return copied, werr
			}
			copied += int64(n)
			if progress != nil {
				progress(copied, total)
			}
		}
		if err == io.EOF {
			return copied, nil
		}
		if err != nil {
			return copied, err
		}
	}
}

// containerExtensions maps response content types to extensions. The
// system mime tables often lack the video containers we accept, so the
// common ones are pinned here.
var containerExtensions = map[string]string{
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/x-matroska": ".mkv",
	"video/quicktime":  ".mov",
	"video/x-msvideo":  ".avi",
	"audio/wav":        ".wav",
	"audio/x-wav":      ".wav",
	"audio/mpeg":       ".mp3",
}

func downloadFileName(parsed *url.URL, contentType string) string {
	base := path.Base(parsed.Path)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if base == "." || base == "/" || base == "" {
		base = "video"
	}
	base = fileutil.SanitizeBaseName(base)

	if filepath.Ext(base) == "" {
		base += extensionForContentType(contentType)
	}
	return base
}

func extensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".mp4"
	}
	if ext, ok := containerExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".mp4"
}
