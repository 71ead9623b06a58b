// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

// Skip reasons reported by ShouldSkip and recorded in metrics.
const (
	ReasonDataURI     = "data-uri"
	ReasonURLPattern  = "url-pattern"
	ReasonAltPattern  = "alt-pattern"
	ReasonTooSmall    = "too-small"
	ReasonAncestor    = "chrome-ancestor"
	ReasonFigureImage = "figure-image"
	ReasonNoSource    = "no-source"
)

// ExclusionFilter rejects images that are page chrome rather than content.
// The rules are heuristics over markup conventions; false positives and
// negatives are expected.
type ExclusionFilter struct {
	cfg         types.ExclusionConfig
	urlPatterns []string
	altPatterns []string
	ancestors   []string
}

// NewExclusionFilter lowercases the configured pattern lists once.
func NewExclusionFilter(cfg types.ExclusionConfig) *ExclusionFilter {
	return &ExclusionFilter{
		cfg:         cfg,
		urlPatterns: lowerAll(cfg.URLPatterns),
		altPatterns: lowerAll(cfg.AltPatterns),
		ancestors:   lowerAll(cfg.AncestorPatterns),
	}
}

// ShouldSkip reports whether img with the given resource reference is
// chrome, and if so which rule matched.
func (f *ExclusionFilter) ShouldSkip(img *goquery.Selection, resource string) (bool, string) {
	res := strings.ToLower(strings.TrimSpace(resource))
	if strings.HasPrefix(res, "data:") {
		return true, ReasonDataURI
	}
	if containsAny(res, f.urlPatterns) {
		return true, ReasonURLPattern
	}

	alt := strings.ToLower(strings.TrimSpace(img.AttrOr("alt", "")))
	if alt != "" {
		if f.strict() {
			if containsAny(alt, f.altPatterns) {
				return true, ReasonAltPattern
			}
		} else if equalsAny(alt, f.altPatterns) {
			return true, ReasonAltPattern
		}
	}

	if f.tooSmall(img.AttrOr("width", "")) || f.tooSmall(img.AttrOr("height", "")) {
		return true, ReasonTooSmall
	}

	if f.strict() && f.chromeAncestor(img) {
		return true, ReasonAncestor
	}
	return false, ""
}

func (f *ExclusionFilter) strict() bool {
	return f.cfg.Strictness != types.LenientExclusion
}

// tooSmall reports whether a declared dimension parses below the floor.
// Missing or non-numeric values never reject.
func (f *ExclusionFilter) tooSmall(v string) bool {
	if f.cfg.MinDimension <= 0 {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return false
	}
	return n < f.cfg.MinDimension
}

// chromeAncestor inspects up to AncestorDepth ancestors for a class or id
// naming an interface region.
func (f *ExclusionFilter) chromeAncestor(img *goquery.Selection) bool {
	depth := f.cfg.AncestorDepth
	if depth <= 0 {
		depth = 1
	}
	node := img.Parent()
	for level := 0; level < depth && node.Length() > 0; level++ {
		if goquery.NodeName(node) == "html" {
			break
		}
		class := strings.ToLower(node.AttrOr("class", ""))
		id := strings.ToLower(node.AttrOr("id", ""))
		if containsAny(class, f.ancestors) || containsAny(id, f.ancestors) {
			return true
		}
		node = node.Parent()
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func equalsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if s == p {
			return true
		}
	}
	return false
}
