// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify walks a parsed paper and picks out the figures, tables,
// and standalone images worth keeping.
//
// Classification is purely structural: selectors and class-name heuristics
// over markup conventions. Nothing here looks at pixel content.
package classify

import (
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-extractor/internal/fetch"
	"github.com/pdiddy/paper-extractor/internal/metrics"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// Classifier turns a parsed document into artifact candidates.
type Classifier struct {
	Config  types.ClassifierConfig
	Filter  *ExclusionFilter
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// New builds a Classifier whose exclusion filter is derived from cfg.
func New(cfg types.ClassifierConfig, logger zerolog.Logger, m *metrics.Metrics) *Classifier {
	return &Classifier{
		Config:  cfg,
		Filter:  NewExclusionFilter(cfg.Exclusion),
		Logger:  logger.With().Str("component", "classify").Logger(),
		Metrics: m,
	}
}

// Result groups the three artifact sequences in document order.
type Result struct {
	Figures []types.Artifact
	Tables  []types.Artifact
	Images  []types.Artifact
}

// Classify runs the figure, table, and image passes over doc.
func (c *Classifier) Classify(doc *fetch.Document) Result {
	r := Result{
		Figures: c.Figures(doc),
		Tables:  c.Tables(doc),
		Images:  c.Images(doc),
	}
	c.Metrics.RecordArtifacts(string(types.KindFigure), len(r.Figures))
	c.Metrics.RecordArtifacts(string(types.KindTable), len(r.Tables))
	c.Metrics.RecordArtifacts(string(types.KindImage), len(r.Images))
	c.Logger.Info().
		Int("figures", len(r.Figures)).
		Int("tables", len(r.Tables)).
		Int("images", len(r.Images)).
		Msg("classified document")
	return r
}

func (c *Classifier) contextLimit() int {
	if c.Config.ContextLimit > 0 {
		return c.Config.ContextLimit
	}
	return DefaultContextLimit
}
