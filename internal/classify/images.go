// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-extractor/internal/fetch"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// Images collects standalone img nodes that survive the exclusion filter.
// Only accepted images consume an ordinal.
func (c *Classifier) Images(doc *fetch.Document) []types.Artifact {
	var images []types.Artifact
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if c.Config.ExcludeFigureImages && c.claimedByFigure(img) {
			c.Metrics.RecordSkip(ReasonFigureImage)
			return
		}
		ref := resourceRef(img)
		if ref == "" {
			c.Metrics.RecordSkip(ReasonNoSource)
			return
		}
		if skip, reason := c.Filter.ShouldSkip(img, ref); skip {
			c.Logger.Debug().Str("src", ref).Str("reason", reason).Msg("skipping image")
			c.Metrics.RecordSkip(reason)
			return
		}
		images = append(images, types.Artifact{
			Kind:     types.KindImage,
			Number:   len(images) + 1,
			AltText:  img.AttrOr("alt", ""),
			ImageURL: ref,
			Context:  parentContext(img, c.contextLimit()),
		})
	})
	c.Logger.Debug().Int("count", len(images)).Msg("extracted images")
	return images
}

// claimedByFigure reports whether a div or figure ancestor carries a class
// token containing one of the figure keywords.
func (c *Classifier) claimedByFigure(img *goquery.Selection) bool {
	claimed := false
	img.ParentsFiltered("div, figure").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		claimed = hasClassToken(s, c.Config.FigureClassKeywords)
		return !claimed
	})
	return claimed
}
