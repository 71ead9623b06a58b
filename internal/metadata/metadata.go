// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata resolves bibliographic records for PubMed Central
// identifiers through the NCBI E-utilities summary and full-record endpoints.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-extractor/internal/httputil"
	"github.com/pdiddy/paper-extractor/internal/identifier"
	"github.com/pdiddy/paper-extractor/internal/metrics"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// FetchError reports that the summary lookup for an identifier failed,
// either in transport, with a non-2xx status, or while decoding.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching summary for %s: %v", identifier.Prefixed(e.ID), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Resolver looks up bibliographic records. It is cheap to construct and
// holds no per-lookup state.
type Resolver struct {
	Client      *http.Client
	SummaryURL  string
	FullTextURL string
	UserAgent   string
	APIKey      string
	Email       string
	Tool        string
	MaxRetries  int
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// NewResolver builds a Resolver from configuration.
func NewResolver(client *http.Client, cfg types.MetadataConfig, userAgent string, logger zerolog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		Client:      client,
		SummaryURL:  cfg.SummaryURL,
		FullTextURL: cfg.FullTextURL,
		UserAgent:   userAgent,
		APIKey:      cfg.APIKey,
		Email:       cfg.Email,
		Tool:        cfg.Tool,
		MaxRetries:  cfg.MaxRetries,
		Logger:      logger.With().Str("component", "metadata").Logger(),
		Metrics:     m,
	}
}

// Resolve returns the bibliographic record for id. The returned record is
// always usable: when the summary lookup fails it carries only the id, the
// "N/A" DOI sentinel and the error text, and the error is also returned as
// a *FetchError so callers can log it. DOI resolution failures are soft and
// never produce an error.
func (r *Resolver) Resolve(ctx context.Context, id string) (types.BibliographicRecord, error) {
	rec := types.BibliographicRecord{
		SourceID:     id,
		PersistentID: types.NotAvailable,
	}

	s, err := r.fetchSummary(ctx, id)
	if err != nil {
		ferr := &FetchError{ID: id, Err: err}
		rec.Error = ferr.Error()
		r.Logger.Warn().Err(err).Str("pmcid", id).Msg("summary lookup failed")
		return rec, ferr
	}

	rec.Title = orNotAvailable(s.Title)
	rec.Journal = orNotAvailable(s.FullJournalName)
	rec.PublicationDate = orNotAvailable(s.PubDate)
	rec.Authors = s.authorNames()

	for _, st := range r.doiStrategies() {
		if doi := st.resolve(ctx, id, s); doi != "" {
			rec.PersistentID = doi
			rec.PersistentIDSource = st.name
			break
		}
	}

	r.Logger.Debug().
		Str("pmcid", id).
		Str("doi", rec.PersistentID).
		Str("doi_source", rec.PersistentIDSource).
		Int("authors", len(rec.Authors)).
		Msg("resolved metadata")
	return rec, nil
}

// get issues a GET against endpoint with the E-utilities query parameters
// and returns the body. HTTP 429 is retried.
func (r *Resolver) get(ctx context.Context, target, endpoint, id, retmode string) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("db", "pmc")
	q.Set("id", id)
	q.Set("retmode", retmode)
	if r.Tool != "" {
		q.Set("tool", r.Tool)
	}
	if r.Email != "" {
		q.Set("email", r.Email)
	}
	if r.APIKey != "" {
		q.Set("api_key", r.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, r.client(), req, r.MaxRetries)
	if err != nil {
		r.Metrics.RecordRequest(target, 0)
		return nil, fmt.Errorf("%s request: %w", target, err)
	}
	defer resp.Body.Close()
	r.Metrics.RecordRequest(target, resp.StatusCode)

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", target, err)
	}
	return body, nil
}

func (r *Resolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

func orNotAvailable(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.NotAvailable
	}
	return s
}
