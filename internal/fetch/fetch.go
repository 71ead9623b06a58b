// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves a paper's rendered HTML and parses it into a
// navigable document tree.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/pdiddy/paper-extractor/internal/httputil"
	"github.com/pdiddy/paper-extractor/internal/metrics"
)

// DefaultTimeout bounds a document fetch when the Fetcher has none.
const DefaultTimeout = 30 * time.Second

// FetchError reports that the source document could not be retrieved.
// StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Document is a parsed page together with the address relative resource
// references resolve against.
type Document struct {
	*goquery.Document
	Base *url.URL
}

// Fetcher retrieves documents with a single attempt and no retry.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// Fetch downloads reference and parses it. The body is transcoded to UTF-8
// from the charset declared in the Content-Type header or sniffed from the
// markup. The base address is the final URL after redirects.
func (f *Fetcher) Fetch(ctx context.Context, reference string) (*Document, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return nil, &FetchError{URL: reference, Err: fmt.Errorf("build request: %w", err)}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	f.Logger.Info().Str("url", reference).Msg("fetching document")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		f.Metrics.RecordRequest("document", 0)
		return nil, &FetchError{URL: reference, Err: err}
	}
	defer resp.Body.Close()
	f.Metrics.RecordRequest("document", resp.StatusCode)

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, &FetchError{URL: reference, StatusCode: resp.StatusCode, Err: err}
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{URL: reference, Err: fmt.Errorf("decode charset: %w", err)}
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &FetchError{URL: reference, Err: fmt.Errorf("parse document: %w", err)}
	}

	base := resp.Request.URL
	doc.Url = base
	f.Logger.Debug().Str("url", base.String()).Msg("parsed document")
	return &Document{Document: doc, Base: base}, nil
}

// FromString parses inline markup as if it had been served from base.
func FromString(markup, base string) (*Document, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base %q: %w", base, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc.Url = u
	return &Document{Document: doc, Base: u}, nil
}
