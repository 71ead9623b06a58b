package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds every request issued during a run (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every request. The default identifies as a
	// desktop browser because publisher sites block unknown agents.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// MetadataConfig holds settings for the bibliographic lookups.
type MetadataConfig struct {
	// SummaryURL is the esummary endpoint keyed by canonical identifier.
	SummaryURL string `json:"summary_url" yaml:"summary_url" mapstructure:"summary_url"`

	// FullTextURL is the efetch endpoint returning the full XML record.
	FullTextURL string `json:"full_text_url" yaml:"full_text_url" mapstructure:"full_text_url"`

	// APIKey and Email are optional NCBI E-utilities parameters; usually
	// loaded from .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	Email  string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// Tool is sent as the E-utilities "tool" parameter.
	Tool string `json:"tool" yaml:"tool" mapstructure:"tool"`

	// MaxRetries bounds retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// NumberingScheme selects how figure ordinals are assigned.
type NumberingScheme string

const (
	// NumberPerPass restarts figure ordinals at 1 for every selector pass.
	NumberPerPass NumberingScheme = "per-pass"
	// NumberDocument numbers accepted figures sequentially across passes.
	NumberDocument NumberingScheme = "document"
)

// Strictness selects the exclusion filter variant.
type Strictness string

const (
	// StrictExclusion matches alt keywords as substrings and inspects ancestors.
	StrictExclusion Strictness = "strict"
	// LenientExclusion matches alt keywords exactly and ignores ancestors.
	LenientExclusion Strictness = "lenient"
)

// ExclusionConfig holds the chrome heuristics. Every list is data so the
// filter can be tuned without code changes.
type ExclusionConfig struct {
	Strictness       Strictness `json:"strictness" yaml:"strictness" mapstructure:"strictness"`
	URLPatterns      []string   `json:"url_patterns" yaml:"url_patterns" mapstructure:"url_patterns"`
	AltPatterns      []string   `json:"alt_patterns" yaml:"alt_patterns" mapstructure:"alt_patterns"`
	AncestorPatterns []string   `json:"ancestor_patterns" yaml:"ancestor_patterns" mapstructure:"ancestor_patterns"`

	// AncestorDepth is how many ancestor levels are inspected (1 = parent only).
	AncestorDepth int `json:"ancestor_depth" yaml:"ancestor_depth" mapstructure:"ancestor_depth"`

	// MinDimension is the pixel floor for declared width/height.
	MinDimension int `json:"min_dimension" yaml:"min_dimension" mapstructure:"min_dimension"`
}

// ClassifierConfig holds the DOM classification settings.
type ClassifierConfig struct {
	FigureSelectors  []string        `json:"figure_selectors" yaml:"figure_selectors" mapstructure:"figure_selectors"`
	CaptionSelectors []string        `json:"caption_selectors" yaml:"caption_selectors" mapstructure:"caption_selectors"`
	Numbering        NumberingScheme `json:"numbering" yaml:"numbering" mapstructure:"numbering"`

	// DedupeFigures drops figure nodes already emitted by an earlier pass.
	DedupeFigures bool `json:"dedupe_figures" yaml:"dedupe_figures" mapstructure:"dedupe_figures"`

	// ExcludeFigureImages skips images whose ancestors carry a
	// FigureClassKeywords class.
	ExcludeFigureImages bool     `json:"exclude_figure_images" yaml:"exclude_figure_images" mapstructure:"exclude_figure_images"`
	FigureClassKeywords []string `json:"figure_class_keywords" yaml:"figure_class_keywords" mapstructure:"figure_class_keywords"`

	// ContextLimit caps context text in characters (default 500).
	ContextLimit int `json:"context_limit" yaml:"context_limit" mapstructure:"context_limit"`

	Exclusion ExclusionConfig `json:"exclusion" yaml:"exclusion" mapstructure:"exclusion"`
}

// BatchConfig holds settings for sequential multi-document runs.
type BatchConfig struct {
	// Delay is the fixed pause between consecutive rows (default 500ms).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// Limit caps the number of rows processed; 0 means all.
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// WithVisuals also runs the visual branch for every row.
	WithVisuals bool `json:"with_visuals" yaml:"with_visuals" mapstructure:"with_visuals"`
}

// ExtractionConfig groups everything one extraction run needs.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// OutputDir receives paper_data.json, images/ and tables/.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// DefaultExt is the file extension used when a resource path has none.
	DefaultExt string `json:"default_ext" yaml:"default_ext" mapstructure:"default_ext"`

	// CatalogPath is the SQLite catalog; empty means <OutputDir>/catalog.db.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path" mapstructure:"catalog_path"`

	Metadata   MetadataConfig   `json:"metadata" yaml:"metadata" mapstructure:"metadata"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Batch      BatchConfig      `json:"batch" yaml:"batch" mapstructure:"batch"`
}

// BrowserUserAgent is the default User-Agent for document and artifact fetches.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultExtractionConfig returns the configuration used when no file,
// environment variable, or flag overrides a setting.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: BrowserUserAgent,
		},
		OutputDir:  "extracted_paper",
		DefaultExt: ".jpg",
		Metadata: MetadataConfig{
			SummaryURL:  "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi",
			FullTextURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi",
			Tool:        "paper-extractor",
			MaxRetries:  3,
		},
		Classifier: ClassifierConfig{
			FigureSelectors: []string{
				`div.figure`,
				`div.fig`,
				`div[class*="figure"]`,
				`div[class*="fig"]`,
				`figure`,
				`div[data-fig]`,
			},
			CaptionSelectors: []string{
				`div.caption`,
				`div.fig-caption`,
				`p.caption`,
				`span.caption`,
				`div[class*="caption"]`,
			},
			Numbering:           NumberPerPass,
			ExcludeFigureImages: true,
			FigureClassKeywords: []string{"fig", "figure", "caption"},
			ContextLimit:        500,
			Exclusion: ExclusionConfig{
				Strictness: StrictExclusion,
				URLPatterns: []string{
					"static/img/", "icon-", "logo", "banner", "header", "footer",
					"nav-", "button", "arrow", "close", "search", "menu", "flag",
					"dot-gov", "usa-icons", "ncbi-logos",
				},
				AltPatterns: []string{
					"logo", "icon", "button", "arrow", "close", "search",
					"menu", "flag", "banner", "header", "footer", "nav",
				},
				AncestorPatterns: []string{
					"header", "footer", "nav", "menu", "sidebar", "toolbar",
					"banner", "logo", "icon", "button", "control",
				},
				AncestorDepth: 1,
				MinDimension:  50,
			},
		},
		Batch: BatchConfig{
			Delay: 500 * time.Millisecond,
		},
	}
}

// Validate reports settings that would make a run misbehave.
func (c ExtractionConfig) Validate() error {
	switch c.Classifier.Numbering {
	case NumberPerPass, NumberDocument:
	default:
		return fmt.Errorf("unknown numbering scheme %q (want %q or %q)", c.Classifier.Numbering, NumberPerPass, NumberDocument)
	}
	switch c.Classifier.Exclusion.Strictness {
	case StrictExclusion, LenientExclusion:
	default:
		return fmt.Errorf("unknown exclusion strictness %q (want %q or %q)", c.Classifier.Exclusion.Strictness, StrictExclusion, LenientExclusion)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if c.Batch.Limit < 0 {
		return fmt.Errorf("batch limit must not be negative")
	}
	return nil
}
