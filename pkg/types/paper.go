// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// NotAvailable is the sentinel stored in bibliographic fields the remote
// services did not provide. It keeps serialized records free of nulls.
const NotAvailable = "N/A"

// BibliographicRecord holds the bibliographic fields resolved for one
// canonical identifier. A fresh record is produced on every resolution.
type BibliographicRecord struct {
	// SourceID is the canonical identifier (the digit run after "PMC").
	SourceID string `json:"pmcid" yaml:"pmcid"`

	// URL is the document reference the identifier was derived from.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	Title           string `json:"title,omitempty" yaml:"title,omitempty"`
	Journal         string `json:"journal,omitempty" yaml:"journal,omitempty"`
	PublicationDate string `json:"pubdate,omitempty" yaml:"pubdate,omitempty"`

	// Authors lists author names in source order. Duplicates are kept.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// PersistentID is the resolved DOI, or NotAvailable. Never empty.
	PersistentID string `json:"doi" yaml:"doi"`

	// PersistentIDSource names the cascade stage that produced PersistentID
	// ("elocationid", "articleids", "efetch"); empty when unresolved.
	PersistentIDSource string `json:"doi_source,omitempty" yaml:"doi_source,omitempty"`

	// Error is set when the summary lookup failed; the other fields are then empty.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the record carries only an error.
func (r BibliographicRecord) Failed() bool {
	return r.Error != ""
}

// ArtifactKind discriminates the three artifact variants.
type ArtifactKind string

const (
	KindFigure ArtifactKind = "figure"
	KindTable  ArtifactKind = "table"
	KindImage  ArtifactKind = "image"
)

// Artifact is an extracted figure, table, or standalone image.
// Number is 1-based and assigned during classification; it is never
// renumbered afterwards.
type Artifact struct {
	Kind   ArtifactKind `json:"type" yaml:"type"`
	Number int          `json:"number" yaml:"number"`

	// Pass is the 1-based figure selector pass that produced a figure, and
	// Selector the selector itself. Zero/empty for tables and images.
	Pass     int    `json:"selector_pass,omitempty" yaml:"selector_pass,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`

	Caption string `json:"caption" yaml:"caption"`
	AltText string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`

	// ImageURL is the absolute resource address for figures and images.
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`

	// LocalPath is where the artifact was materialized; empty when the
	// download failed.
	LocalPath string `json:"local_path" yaml:"local_path"`

	// Context is the flattened text of the artifact's parent node, capped
	// at 500 characters plus a truncation marker.
	Context string `json:"context" yaml:"context"`

	// HTMLContent and Rows are populated for tables only.
	HTMLContent string     `json:"html_content,omitempty" yaml:"html_content,omitempty"`
	Rows        [][]string `json:"data,omitempty" yaml:"data,omitempty"`

	// SHA256, Width and Height describe the materialized payload.
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// ExtractionResult is the manifest produced by one extraction run.
type ExtractionResult struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	SourceReference string    `json:"source_url" yaml:"source_url"`
	ExtractedAt     time.Time `json:"extraction_date" yaml:"extraction_date"`
	OutputDir       string    `json:"output_directory" yaml:"output_directory"`

	// CanonicalID is empty when IdentifierError is set.
	CanonicalID     string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`
	IdentifierError string `json:"identifier_error,omitempty" yaml:"identifier_error,omitempty"`

	Bibliographic *BibliographicRecord `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// FetchError is set when the document could not be fetched; the
	// artifact sequences are then empty.
	FetchError string `json:"fetch_error,omitempty" yaml:"fetch_error,omitempty"`

	Figures []Artifact `json:"figures" yaml:"figures"`
	Tables  []Artifact `json:"tables" yaml:"tables"`
	Images  []Artifact `json:"images" yaml:"images"`

	TotalCount int `json:"total_elements" yaml:"total_elements"`
}

// Recount sets TotalCount to the sum of the three artifact sequences.
func (r *ExtractionResult) Recount() int {
	r.TotalCount = len(r.Figures) + len(r.Tables) + len(r.Images)
	return r.TotalCount
}

// HasVisuals reports whether the visual branch produced a result.
func (r *ExtractionResult) HasVisuals() bool {
	return r.FetchError == ""
}

// BatchRow is one input row of a batch run.
type BatchRow struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// BatchRecord is one metadata-only output row of a batch run.
type BatchRecord struct {
	OriginalTitle string `json:"original_title" yaml:"original_title"`
	BibliographicRecord `yaml:",inline"`
}
