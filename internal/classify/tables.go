// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-extractor/internal/fetch"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// captionClass matches class attributes that mark a caption near a table.
var captionClass = regexp.MustCompile(`caption|table-caption`)

// Tables returns every table node, numbered in document order. Tables are
// never filtered.
func (c *Classifier) Tables(doc *fetch.Document) []types.Artifact {
	var tables []types.Artifact
	doc.Find("table").Each(func(i int, node *goquery.Selection) {
		markup, err := goquery.OuterHtml(node)
		if err != nil {
			c.Logger.Warn().Err(err).Int("table", i+1).Msg("rendering table markup")
		}
		tables = append(tables, types.Artifact{
			Kind:        types.KindTable,
			Number:      i + 1,
			Caption:     tableCaption(node),
			Context:     parentContext(node, c.contextLimit()),
			HTMLContent: markup,
			Rows:        tableRows(node),
		})
	})
	c.Logger.Debug().Int("count", len(tables)).Msg("extracted tables")
	return tables
}

// tableCaption tries, in order: a nested caption element, the preceding
// sibling element when it is classed as a caption, and the first div or p
// under the table's parent whose class looks like a caption.
func tableCaption(node *goquery.Selection) string {
	if hit := node.Find("caption").First(); hit.Length() > 0 {
		return flatten(hit)
	}
	if prev := node.Prev(); prev.Length() > 0 && (prev.HasClass("caption") || prev.HasClass("table-caption")) {
		return flatten(prev)
	}
	var caption string
	node.Parent().Find("div, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if captionClass.MatchString(s.AttrOr("class", "")) {
			caption = flatten(s)
			return false
		}
		return true
	})
	return caption
}

// tableRows collects cell text row by row. Rows without any td or th are
// dropped.
func tableRows(node *goquery.Selection) [][]string {
	var rows [][]string
	node.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, flatten(cell))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}
