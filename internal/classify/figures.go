// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pdiddy/paper-extractor/internal/fetch"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// Figures runs every figure selector in order and collects the matches that
// carry an image reference or a caption.
//
// Under per-pass numbering the ordinal is the node's position among all
// matches of its pass, so ordinals repeat across passes and may skip values
// for rejected nodes. Under document numbering accepted figures are
// numbered 1..n across all passes.
func (c *Classifier) Figures(doc *fetch.Document) []types.Artifact {
	var (
		figures []types.Artifact
		seen    = make(map[*html.Node]bool)
	)
	for pass, selector := range c.Config.FigureSelectors {
		doc.Find(selector).Each(func(i int, node *goquery.Selection) {
			if c.Config.DedupeFigures && seen[node.Get(0)] {
				return
			}

			fig := types.Artifact{
				Kind:     types.KindFigure,
				Pass:     pass + 1,
				Selector: selector,
				Caption:  c.figureCaption(node),
				Context:  parentContext(node, c.contextLimit()),
			}
			if img := node.Find("img").First(); img.Length() > 0 {
				fig.ImageURL = resourceRef(img)
				fig.AltText = img.AttrOr("alt", "")
			}
			if fig.ImageURL == "" && fig.Caption == "" {
				return
			}

			if c.Config.Numbering == types.NumberDocument {
				fig.Number = len(figures) + 1
			} else {
				fig.Number = i + 1
			}
			seen[node.Get(0)] = true
			figures = append(figures, fig)
		})
	}
	c.Logger.Debug().Int("count", len(figures)).Msg("extracted figures")
	return figures
}

// figureCaption returns the text of the first descendant matching a caption
// selector, trying the selectors in configured order.
func (c *Classifier) figureCaption(node *goquery.Selection) string {
	for _, sel := range c.Config.CaptionSelectors {
		if hit := node.Find(sel).First(); hit.Length() > 0 {
			return flatten(hit)
		}
	}
	return ""
}
