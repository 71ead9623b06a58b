// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// summaryResponse is the esummary envelope. Result maps each uid to its
// document summary and also carries a "uids" list, so values stay raw.
type summaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// summary captures the esummary fields used for a record.
type summary struct {
	Title           string      `json:"title"`
	FullJournalName string      `json:"fulljournalname"`
	PubDate         string      `json:"pubdate"`
	Authors         []author    `json:"authors"`
	ELocationID     looseString `json:"elocationid"`
	ArticleIDs      []articleID `json:"articleids"`
}

// author is either {"name": "..."} or a bare JSON value.
type author struct {
	Name string
}

func (a *author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Name looseString `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		a.Name = string(obj.Name)
		return nil
	}
	var s looseString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	a.Name = string(s)
	return nil
}

// articleID is either {"idtype": "...", "value"|"id": "..."} or a bare value.
type articleID struct {
	Type  string
	Value string
	// Bare is set when the entry was not an object.
	Bare bool
}

func (a *articleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			ID     looseString `json:"id"`
			Value  looseString `json:"value"`
			IDType looseString `json:"idtype"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		a.Value = string(obj.ID)
		if a.Value == "" {
			a.Value = string(obj.Value)
		}
		a.Type = string(obj.IDType)
		return nil
	}
	var s looseString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	a.Value = string(s)
	a.Bare = true
	return nil
}

// looseString accepts any JSON scalar and keeps its text form. null
// becomes the empty string.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseString(s)
	default:
		*l = looseString(data)
	}
	return nil
}

// authorNames flattens author entries into names, preserving order and
// skipping empty ones.
func (s *summary) authorNames() []string {
	names := make([]string, 0, len(s.Authors))
	for _, a := range s.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// fetchSummary retrieves and decodes the esummary document for id. A
// response without an entry for id yields an empty summary, not an error.
func (r *Resolver) fetchSummary(ctx context.Context, id string) (*summary, error) {
	body, err := r.get(ctx, "esummary", r.SummaryURL, id, "json")
	if err != nil {
		return nil, err
	}
	return parseSummary(body, id)
}

func parseSummary(body []byte, id string) (*summary, error) {
	var env summaryResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parsing summary response: %w", err)
	}
	var s summary
	raw, ok := env.Result[id]
	if !ok || len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return &s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing summary for %s: %w", id, err)
	}
	return &s, nil
}
