// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract orchestrates one extraction run: the identifier branch
// (canonical id, then bibliographic metadata) and the visual branch
// (fetch, classify, filter, materialize) run one after the other and
// converge in a single ExtractionResult that is always persisted.
package extract

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-extractor/internal/classify"
	"github.com/pdiddy/paper-extractor/internal/fetch"
	"github.com/pdiddy/paper-extractor/internal/identifier"
	"github.com/pdiddy/paper-extractor/internal/materialize"
	"github.com/pdiddy/paper-extractor/internal/metadata"
	"github.com/pdiddy/paper-extractor/internal/metrics"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// Extractor runs extractions with a fixed configuration.
type Extractor struct {
	Config  types.ExtractionConfig
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Now stamps results; tests replace it.
	Now func() time.Time
}

// New returns an Extractor with a fresh metrics registry.
func New(cfg types.ExtractionConfig, logger zerolog.Logger) *Extractor {
	return &Extractor{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Now:     time.Now,
	}
}

// Run extracts everything it can from reference. It never fails: every
// error is recorded on the result, and the artifact sequences are empty
// when the document could not be fetched.
func (e *Extractor) Run(ctx context.Context, reference string) *types.ExtractionResult {
	start := time.Now()
	client := e.newClient()

	result := &types.ExtractionResult{
		RunID:           uuid.NewString(),
		SourceReference: reference,
		ExtractedAt:     e.now(),
		OutputDir:       e.Config.OutputDir,
	}
	runLog := e.Logger.With().Str("run_id", result.RunID).Logger()
	log := runLog.With().Str("component", "extract").Logger()
	log.Info().Str("url", reference).Msg("starting extraction")

	e.resolveMetadata(ctx, client, result, runLog)
	e.extractVisuals(ctx, client, result, runLog)

	result.Figures = nonNil(result.Figures)
	result.Tables = nonNil(result.Tables)
	result.Images = nonNil(result.Images)
	result.Recount()
	e.Metrics.ObserveRun(start)

	log.Info().
		Int("figures", len(result.Figures)).
		Int("tables", len(result.Tables)).
		Int("images", len(result.Images)).
		Int("total", result.TotalCount).
		Msg("extraction finished")
	return result
}

// newClient builds the one HTTP client shared by every request of a run.
func (e *Extractor) newClient() *http.Client {
	timeout := e.Config.Timeout
	if timeout <= 0 {
		timeout = fetch.DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// resolveMetadata runs the identifier branch.
func (e *Extractor) resolveMetadata(ctx context.Context, client *http.Client, result *types.ExtractionResult, runLog zerolog.Logger) {
	log := runLog.With().Str("component", "extract").Logger()
	id, err := identifier.Resolve(result.SourceReference)
	if err != nil {
		result.IdentifierError = err.Error()
		log.Warn().Err(err).Msg("no canonical identifier; skipping metadata")
		return
	}
	result.CanonicalID = id

	resolver := metadata.NewResolver(client, e.Config.Metadata, e.Config.UserAgent, runLog, e.Metrics)
	rec, err := resolver.Resolve(ctx, id)
	rec.URL = result.SourceReference
	result.Bibliographic = &rec
	if err != nil {
		log.Warn().Err(err).Msg("metadata unavailable")
	}
}

// extractVisuals runs the visual branch. A fetch failure ends the branch
// with empty sequences; download failures only clear a LocalPath.
func (e *Extractor) extractVisuals(ctx context.Context, client *http.Client, result *types.ExtractionResult, runLog zerolog.Logger) {
	log := runLog.With().Str("component", "extract").Logger()
	fetcher := &fetch.Fetcher{
		Client:    client,
		UserAgent: e.Config.UserAgent,
		Timeout:   e.Config.Timeout,
		Logger:    runLog.With().Str("component", "fetch").Logger(),
		Metrics:   e.Metrics,
	}
	doc, err := fetcher.Fetch(ctx, result.SourceReference)
	if err != nil {
		result.FetchError = err.Error()
		log.Error().Err(err).Msg("document fetch failed")
		return
	}

	found := classify.New(e.Config.Classifier, runLog, e.Metrics).Classify(doc)

	mat := &materialize.Materializer{
		Client:     client,
		UserAgent:  e.Config.UserAgent,
		Timeout:    e.Config.Timeout,
		OutputDir:  result.OutputDir,
		DefaultExt: e.Config.DefaultExt,
		Logger:     runLog.With().Str("component", "materialize").Logger(),
		Metrics:    e.Metrics,
	}

	for i := range found.Figures {
		fig := &found.Figures[i]
		if fig.ImageURL == "" {
			continue
		}
		fig.ImageURL = materialize.ResolveURL(doc.Base, fig.ImageURL)
		// A failed download leaves LocalPath empty; Download logs and counts it.
		mat.Download(ctx, fig, materialize.FigureName(*fig, e.Config.Classifier.Numbering))
	}
	for i := range found.Tables {
		if _, err := mat.WriteTable(&found.Tables[i]); err != nil {
			log.Warn().Err(err).Int("table", found.Tables[i].Number).Msg("writing table failed")
		}
	}
	for i := range found.Images {
		img := &found.Images[i]
		img.ImageURL = materialize.ResolveURL(doc.Base, img.ImageURL)
		// Failures are recorded on the artifact, as for figures.
		mat.Download(ctx, img, materialize.ImageName(img.Number))
	}

	result.Figures = found.Figures
	result.Tables = found.Tables
	result.Images = found.Images
}

func nonNil(a []types.Artifact) []types.Artifact {
	if a == nil {
		return []types.Artifact{}
	}
	return a
}
