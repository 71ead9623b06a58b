// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

const sampleBatchCSV = "\ufeffTitle,Link\n" +
	"\"Spaceflight, bone and muscle\",https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/\n" +
	"No id here,https://example.org/paper\n" +
	"Second,https://www.ncbi.nlm.nih.gov/pmc/articles/PMC3630201/\n"

func TestParseBatch(t *testing.T) {
	rows, err := ParseBatch(strings.NewReader(sampleBatchCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, types.BatchRow{
		Title: "Spaceflight, bone and muscle",
		URL:   "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/",
	}, rows[0])
	assert.Equal(t, "No id here", rows[1].Title)
}

func TestParseBatchHeaders(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []types.BatchRow
		wantErr bool
	}{
		{
			name:  "url column lowercase",
			input: "title,url\nA,https://x/PMC1/\n",
			want:  []types.BatchRow{{Title: "A", URL: "https://x/PMC1/"}},
		},
		{
			name:  "link preferred over url",
			input: "URL,Link,Title\nhttps://a,https://b/PMC2,B\n",
			want:  []types.BatchRow{{Title: "B", URL: "https://b/PMC2"}},
		},
		{
			name:  "no title column",
			input: "Link\nhttps://c/PMC3\n",
			want:  []types.BatchRow{{URL: "https://c/PMC3"}},
		},
		{
			name:  "short row",
			input: "Title,Link\nOnly title\n",
			want:  []types.BatchRow{{Title: "Only title"}},
		},
		{
			name:    "missing link column",
			input:   "Title,Abstract\nA,B\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBatch(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBatchFromFileAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleBatchCSV), 0o644))

	fromFile, err := ReadBatch(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Len(t, fromFile, 3)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/SB_publication_PMC.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleBatchCSV))
	}))
	defer ts.Close()

	fromURL, err := ReadBatch(context.Background(), ts.Client(), ts.URL+"/SB_publication_PMC.csv")
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromURL)

	_, err = ReadBatch(context.Background(), ts.Client(), ts.URL+"/missing.csv")
	assert.Error(t, err)

	_, err = ReadBatch(context.Background(), nil, filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestRunBatch(t *testing.T) {
	site := newPaperSite(t)
	e := newTestExtractor(site.config(t))
	rows, err := ParseBatch(strings.NewReader(sampleBatchCSV))
	require.NoError(t, err)

	var out bytes.Buffer
	summary := e.RunBatch(context.Background(), rows, &out)

	assert.Equal(t, 3, summary.Total())
	assert.Equal(t, 2, summary.Resolved)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())
	require.Len(t, summary.Records, 3)

	first := summary.Records[0]
	assert.Equal(t, "Spaceflight, bone and muscle", first.OriginalTitle)
	assert.Equal(t, "4136787", first.SourceID)
	assert.Equal(t, "Paper 4136787", first.Title)
	assert.Equal(t, "doi:10.1371/x", first.PersistentID)
	assert.Equal(t, rows[0].URL, first.URL)

	missing := summary.Records[1]
	assert.Equal(t, ErrNoIdentifier, missing.Error)
	assert.Empty(t, missing.SourceID)
	assert.Equal(t, types.NotAvailable, missing.PersistentID)

	assert.Equal(t, "3630201", summary.Records[2].SourceID)
	assert.Contains(t, out.String(), "Batch summary: 2 resolved, 1 failed (total: 3)")
}

func TestRunBatchLimit(t *testing.T) {
	site := newPaperSite(t)
	cfg := site.config(t)
	cfg.Batch.Limit = 1
	e := newTestExtractor(cfg)
	rows, err := ParseBatch(strings.NewReader(sampleBatchCSV))
	require.NoError(t, err)

	summary := e.RunBatch(context.Background(), rows, &bytes.Buffer{})
	assert.Equal(t, 1, summary.Total())
}

func TestRunBatchCancelled(t *testing.T) {
	site := newPaperSite(t)
	cfg := site.config(t)
	cfg.Batch.Delay = 1
	e := newTestExtractor(cfg)
	rows, err := ParseBatch(strings.NewReader(sampleBatchCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := e.RunBatch(ctx, rows, &bytes.Buffer{})
	assert.LessOrEqual(t, summary.Total(), 1)
}

func TestRunBatchWithVisuals(t *testing.T) {
	site := newPaperSite(t)
	cfg := site.config(t)
	cfg.Batch.WithVisuals = true
	e := newTestExtractor(cfg)

	rows := []types.BatchRow{{Title: "Spaceflight", URL: site.URL + articlePath}}
	var out bytes.Buffer
	summary := e.RunBatch(context.Background(), rows, &out)

	require.Equal(t, 1, summary.Resolved)
	paperDir := filepath.Join(cfg.OutputDir, "PMC4136787")
	assert.FileExists(t, filepath.Join(paperDir, ResultFile))
	assert.FileExists(t, filepath.Join(paperDir, "tables", "table_1.html"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "catalog.db"))
	assert.NoFileExists(t, filepath.Join(paperDir, "catalog.db"))
	assert.Contains(t, out.String(), "visuals: 2 figures, 1 tables, 2 images")
}

func TestRunBatchWithVisualsMetricsPerRow(t *testing.T) {
	site := newPaperSite(t)
	cfg := site.config(t)
	cfg.Batch.WithVisuals = true
	e := newTestExtractor(cfg)

	rows := []types.BatchRow{
		{Title: "First", URL: site.URL + "/pmc/articles/PMC1/"},
		{Title: "Second", URL: site.URL + "/pmc/articles/PMC2/"},
	}
	summary := e.RunBatch(context.Background(), rows, &bytes.Buffer{})
	require.Equal(t, 2, summary.Resolved)

	for _, dir := range []string{"PMC1", "PMC2"} {
		data, err := os.ReadFile(filepath.Join(cfg.OutputDir, dir, MetricsFile))
		require.NoError(t, err, dir)
		text := string(data)
		assert.Contains(t, text, `paper_extractor_artifacts_total{kind="table"} 1`, dir)
		assert.NotContains(t, text, "paper_extractor_batch_rows_total", dir)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(e.Metrics.BatchRowsTotal.WithLabelValues("resolved")))
}

func TestWriteBatch(t *testing.T) {
	dir := t.TempDir()
	records := []types.BatchRecord{
		{
			OriginalTitle: "Spaceflight",
			BibliographicRecord: types.BibliographicRecord{
				SourceID:           "4136787",
				URL:                "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/",
				Title:              "Spaceflight alters bone",
				Journal:            "PloS one",
				PublicationDate:    "2014 Aug 18",
				Authors:            []string{"Smith J", "Jones K"},
				PersistentID:       "10.1371/journal.pone.0104505",
				PersistentIDSource: "articleids",
			},
		},
		{
			OriginalTitle:       "Broken",
			BibliographicRecord: types.BibliographicRecord{URL: "https://example.org", PersistentID: types.NotAvailable, Error: ErrNoIdentifier},
		},
	}
	require.NoError(t, WriteBatch(records, dir))

	f, err := os.Open(filepath.Join(dir, BatchCSVFile))
	require.NoError(t, err)
	defer f.Close()
	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, batchCSVHeader, lines[0])
	assert.Equal(t, "Smith J; Jones K", lines[1][6])
	assert.Equal(t, "articleids", lines[1][8])
	assert.Equal(t, ErrNoIdentifier, lines[2][9])

	data, err := os.ReadFile(filepath.Join(dir, BatchJSONFile))
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Spaceflight", decoded[0]["original_title"])
	assert.Equal(t, "4136787", decoded[0]["pmcid"])
	assert.Equal(t, "10.1371/journal.pone.0104505", decoded[0]["doi"])
}

func TestWriteBatchEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteBatch(nil, dir))
	data, err := os.ReadFile(filepath.Join(dir, BatchJSONFile))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
