// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const doiHost = "doi.org"

// doiFromFullText is the last cascade stage: it downloads the full JATS
// record and looks for a DOI there. Failures are logged and yield "".
func (r *Resolver) doiFromFullText(ctx context.Context, id string, _ *summary) string {
	if r.FullTextURL == "" {
		return ""
	}
	body, err := r.get(ctx, "efetch", r.FullTextURL, id, "xml")
	if err != nil {
		r.Logger.Warn().Err(err).Str("pmcid", id).Msg("full record lookup failed")
		return ""
	}
	doi, err := scanFullTextDOI(bytes.NewReader(body))
	if err != nil {
		r.Logger.Warn().Err(err).Str("pmcid", id).Msg("parsing full record")
	}
	return doi
}

// scanFullTextDOI walks a JATS document. The first <article-id> whose
// pub-id-type mentions "doi" wins when it has text; otherwise the first
// <ext-link> pointing at doi.org is used. A parse error after a DOI was
// already found is ignored.
func scanFullTextDOI(r io.Reader) (string, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.AutoClose = xml.HTMLAutoClose
	d.Entity = xml.HTMLEntity

	var (
		articleSeen bool
		articleDOI  string
		linkHref    string
	)
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fallbackDOI(articleDOI, linkHref), fmt.Errorf("decoding full record: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch strings.ToLower(se.Name.Local) {
		case "article-id":
			if articleSeen || !attrContains(se, "pub-id-type", "doi") {
				continue
			}
			articleSeen = true
			var v struct {
				Text string `xml:",chardata"`
			}
			if err := d.DecodeElement(&v, &se); err != nil {
				return fallbackDOI(articleDOI, linkHref), fmt.Errorf("decoding article-id: %w", err)
			}
			articleDOI = strings.TrimSpace(v.Text)
			if articleDOI != "" {
				return articleDOI, nil
			}
		case "ext-link":
			if linkHref != "" {
				continue
			}
			for _, a := range se.Attr {
				if strings.EqualFold(a.Name.Local, "href") && strings.Contains(a.Value, doiHost) {
					linkHref = a.Value
					break
				}
			}
		}
	}
	return fallbackDOI(articleDOI, linkHref), nil
}

func fallbackDOI(articleDOI, href string) string {
	if articleDOI != "" {
		return articleDOI
	}
	if href == "" {
		return ""
	}
	if i := strings.LastIndex(href, doiHost+"/"); i >= 0 {
		return href[i+len(doiHost)+1:]
	}
	return href
}

// attrContains reports whether se has attribute name (any namespace) whose
// value contains sub, case-insensitively.
func attrContains(se xml.StartElement, name, sub string) bool {
	for _, a := range se.Attr {
		if strings.EqualFold(a.Name.Local, name) && strings.Contains(strings.ToLower(a.Value), sub) {
			return true
		}
	}
	return false
}
