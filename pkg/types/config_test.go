package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultExtractionConfig(t *testing.T) {
	cfg := DefaultExtractionConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, BrowserUserAgent, cfg.UserAgent)
	assert.Equal(t, "extracted_paper", cfg.OutputDir)
	assert.Equal(t, ".jpg", cfg.DefaultExt)
	assert.Equal(t, NumberPerPass, cfg.Classifier.Numbering)
	assert.Equal(t, StrictExclusion, cfg.Classifier.Exclusion.Strictness)
	assert.Equal(t, 50, cfg.Classifier.Exclusion.MinDimension)
	assert.Equal(t, 1, cfg.Classifier.Exclusion.AncestorDepth)
	assert.Equal(t, 500, cfg.Classifier.ContextLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.Delay)
	assert.Len(t, cfg.Classifier.FigureSelectors, 6)
	assert.Equal(t, "div.figure", cfg.Classifier.FigureSelectors[0])
	assert.NotContains(t, cfg.Classifier.Exclusion.URLPatterns, "https")
}

func TestDefaultExtractionConfigIndependentCopies(t *testing.T) {
	a := DefaultExtractionConfig()
	a.Classifier.FigureSelectors[0] = "changed"
	b := DefaultExtractionConfig()
	assert.Equal(t, "div.figure", b.Classifier.FigureSelectors[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ExtractionConfig)
		wantErr string
	}{
		{"document numbering", func(c *ExtractionConfig) { c.Classifier.Numbering = NumberDocument }, ""},
		{"lenient", func(c *ExtractionConfig) { c.Classifier.Exclusion.Strictness = LenientExclusion }, ""},
		{"bad numbering", func(c *ExtractionConfig) { c.Classifier.Numbering = "global" }, "numbering"},
		{"bad strictness", func(c *ExtractionConfig) { c.Classifier.Exclusion.Strictness = "loose" }, "strictness"},
		{"empty output", func(c *ExtractionConfig) { c.OutputDir = "" }, "output directory"},
		{"negative limit", func(c *ExtractionConfig) { c.Batch.Limit = -1 }, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultExtractionConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
