// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultContextLimit caps context text when the configuration leaves it unset.
const DefaultContextLimit = 500

// truncationMarker is appended to context text cut at the limit.
const truncationMarker = "..."

// flatten returns the text of sel with runs of whitespace collapsed to a
// single space and the ends trimmed.
func flatten(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// truncate cuts s to limit runes and marks the cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + truncationMarker
}

// parentContext is the flattened text of the node's parent, truncated.
func parentContext(sel *goquery.Selection, limit int) string {
	return truncate(flatten(sel.Parent()), limit)
}

// resourceRef returns the image reference of an img node, preferring src
// and falling back to the lazy-loading data-src attribute.
func resourceRef(img *goquery.Selection) string {
	if src := strings.TrimSpace(img.AttrOr("src", "")); src != "" {
		return src
	}
	return strings.TrimSpace(img.AttrOr("data-src", ""))
}

// hasClassToken reports whether any class token of sel contains one of the
// keywords. Comparison is case-insensitive.
func hasClassToken(sel *goquery.Selection, keywords []string) bool {
	for _, tok := range strings.Fields(strings.ToLower(sel.AttrOr("class", ""))) {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(tok, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}
