// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package materialize writes accepted artifacts to local storage: image
// payloads are downloaded under images/ and tables are wrapped in a minimal
// HTML shell under tables/.
package materialize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-extractor/internal/httputil"
	"github.com/pdiddy/paper-extractor/internal/metrics"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

const (
	// ImagesDir holds downloaded figure and image payloads.
	ImagesDir = "images"
	// TablesDir holds one HTML file per table.
	TablesDir = "tables"

	// DefaultExt is used when the resource path carries no extension.
	DefaultExt = ".jpg"
)

// DownloadError reports that one artifact's payload could not be fetched
// or written. It never aborts a run.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Materializer stores artifacts under OutputDir.
type Materializer struct {
	Client     *http.Client
	UserAgent  string
	Timeout    time.Duration
	OutputDir  string
	DefaultExt string
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// ResolveURL makes ref absolute against base. Protocol-relative and
// root-relative references take the base's scheme and host; absolute
// references are returned unchanged. An unparseable ref is returned as is.
func ResolveURL(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}

// Download fetches the artifact's ImageURL and writes it to
// images/<name><ext>. On success LocalPath, SHA256 and, when the payload
// decodes as an image, Width and Height are set on a. On failure a is left
// without a LocalPath and a *DownloadError is returned.
func (m *Materializer) Download(ctx context.Context, a *types.Artifact, name string) (string, error) {
	dest, err := m.download(ctx, a, name)
	m.Metrics.RecordDownload(err == nil)
	if err != nil {
		a.LocalPath = ""
		m.Logger.Warn().Err(err).Str("url", a.ImageURL).Msg("artifact download failed")
		return "", err
	}
	a.LocalPath = dest
	m.Logger.Info().Str("file", filepath.Base(dest)).Msg("downloaded artifact")
	return dest, nil
}

func (m *Materializer) download(ctx context.Context, a *types.Artifact, name string) (string, error) {
	if a.ImageURL == "" {
		return "", &DownloadError{URL: a.ImageURL, Err: fmt.Errorf("no resource reference")}
	}
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.ImageURL, nil)
	if err != nil {
		return "", &DownloadError{URL: a.ImageURL, Err: err}
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		m.Metrics.RecordRequest("artifact", 0)
		return "", &DownloadError{URL: a.ImageURL, Err: err}
	}
	defer resp.Body.Close()
	m.Metrics.RecordRequest("artifact", resp.StatusCode)

	if err := httputil.CheckStatus(resp); err != nil {
		return "", &DownloadError{URL: a.ImageURL, Err: err}
	}

	dir := filepath.Join(m.OutputDir, ImagesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &DownloadError{URL: a.ImageURL, Err: fmt.Errorf("creating %s: %w", dir, err)}
	}
	dest := filepath.Join(dir, name+m.extension(a.ImageURL))

	sum, err := writeAtomic(dest, resp.Body)
	if err != nil {
		return "", &DownloadError{URL: a.ImageURL, Err: err}
	}
	a.SHA256 = sum
	if w, h, ok := Dimensions(dest); ok {
		a.Width, a.Height = w, h
	}
	return dest, nil
}

// extension returns the extension of the resource path, or the default.
func (m *Materializer) extension(ref string) string {
	var ext string
	if u, err := url.Parse(ref); err == nil {
		ext = path.Ext(u.Path)
	}
	if ext != "" {
		return ext
	}
	if m.DefaultExt != "" {
		return m.DefaultExt
	}
	return DefaultExt
}

// writeAtomic streams r into a temp file beside dest, then renames it into
// place. It returns the hex SHA-256 of the bytes written.
func writeAtomic(dest string, r io.Reader) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("renaming to %s: %w", dest, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
