// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"strings"
)

// doiStrategy is one stage of the DOI cascade. resolve returns the empty
// string when the stage has no answer.
type doiStrategy struct {
	name    string
	resolve func(ctx context.Context, id string, s *summary) string
}

// doiStrategies lists the cascade in priority order. The first stage that
// yields a value wins; later stages are not consulted.
func (r *Resolver) doiStrategies() []doiStrategy {
	return []doiStrategy{
		{name: "elocationid", resolve: func(_ context.Context, _ string, s *summary) string {
			return doiFromELocation(string(s.ELocationID))
		}},
		{name: "articleids", resolve: func(_ context.Context, _ string, s *summary) string {
			return doiFromArticleIDs(s.ArticleIDs)
		}},
		{name: "efetch", resolve: r.doiFromFullText},
	}
}

// doiFromELocation accepts the electronic location identifier when it
// mentions "doi", e.g. "doi: 10.1371/journal.pone.0104505".
func doiFromELocation(eloc string) string {
	eloc = strings.TrimSpace(eloc)
	if eloc == "" || !strings.Contains(strings.ToLower(eloc), "doi") {
		return ""
	}
	return eloc
}

// doiFromArticleIDs returns the first article identifier that is typed as
// a DOI or whose value looks like one.
func doiFromArticleIDs(ids []articleID) string {
	for _, aid := range ids {
		if aid.Bare {
			s := strings.TrimSpace(aid.Value)
			if strings.Contains(strings.ToLower(s), "doi") || strings.HasPrefix(s, "10.") {
				return s
			}
			continue
		}
		idType := strings.ToLower(aid.Type)
		if aid.Value != "" && strings.Contains(idType, "doi") {
			return aid.Value
		}
		if strings.Contains(aid.Value, "doi.org") || strings.HasPrefix(aid.Value, "10.") {
			return aid.Value
		}
	}
	return ""
}
