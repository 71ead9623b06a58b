// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-extractor/internal/catalog"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// Output file names written by Persist.
const (
	ResultFile   = "paper_data.json"
	MetadataFile = "metadata.yaml"
	MetricsFile  = "metrics.prom"
)

// Persist writes the result manifest, the bibliographic record, the run
// metrics, and a catalog entry. Partial results are written like complete
// ones.
func (e *Extractor) Persist(ctx context.Context, result *types.ExtractionResult) error {
	if err := os.MkdirAll(result.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := writeJSON(filepath.Join(result.OutputDir, ResultFile), result); err != nil {
		return err
	}

	if result.Bibliographic != nil {
		data, err := yaml.Marshal(result.Bibliographic)
		if err != nil {
			return fmt.Errorf("marshaling metadata: %w", err)
		}
		if err := os.WriteFile(filepath.Join(result.OutputDir, MetadataFile), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", MetadataFile, err)
		}
	}

	if e.Metrics != nil {
		if err := e.Metrics.WriteTextfile(filepath.Join(result.OutputDir, MetricsFile)); err != nil {
			return fmt.Errorf("writing %s: %w", MetricsFile, err)
		}
	}

	return e.recordCatalog(ctx, result)
}

// CatalogPath returns the configured catalog location, defaulting to the
// output directory.
func (e *Extractor) CatalogPath() string {
	if e.Config.CatalogPath != "" {
		return e.Config.CatalogPath
	}
	return filepath.Join(e.Config.OutputDir, catalog.FileName)
}

func (e *Extractor) recordCatalog(ctx context.Context, result *types.ExtractionResult) error {
	store, err := catalog.Open(e.CatalogPath())
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.RecordRun(ctx, result); err != nil {
		return fmt.Errorf("recording run in catalog: %w", err)
	}
	return nil
}

// writeJSON writes v as indented UTF-8 JSON without HTML escaping, so
// table markup stays readable.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
