// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/paper-extractor/internal/httputil"
	"github.com/pdiddy/paper-extractor/internal/identifier"
	"github.com/pdiddy/paper-extractor/internal/metadata"
	"github.com/pdiddy/paper-extractor/internal/metrics"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// Batch output files written by WriteBatch.
const (
	BatchJSONFile = "papers_metadata.json"
	BatchCSVFile  = "papers_metadata.csv"
)

// ErrNoIdentifier is the error text recorded for rows whose link carries no
// canonical identifier.
const ErrNoIdentifier = "No PMCID found in link"

// BatchSummary holds the outcome of a batch run.
type BatchSummary struct {
	Resolved int
	Failed   int
	Records  []types.BatchRecord
}

// Total returns the number of rows processed.
func (s BatchSummary) Total() int {
	return s.Resolved + s.Failed
}

// HasFailures reports whether any row failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// RunBatch resolves metadata for each row, strictly in order, pausing
// Config.Batch.Delay between rows. With Config.Batch.WithVisuals each row
// also runs the visual branch into <OutputDir>/<pmcid>/. A failing row is
// recorded and the batch moves on. Cancelling ctx stops before the next
// row.
func (e *Extractor) RunBatch(ctx context.Context, rows []types.BatchRow, w io.Writer) BatchSummary {
	if limit := e.Config.Batch.Limit; limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	var summary BatchSummary
	client := e.newClient()
	resolver := metadata.NewResolver(client, e.Config.Metadata, e.Config.UserAgent, e.Logger, e.Metrics)

	for i, row := range rows {
		if i > 0 && !sleep(ctx, e.Config.Batch.Delay) {
			fmt.Fprintf(w, "cancelled after %d of %d rows\n", i, len(rows))
			break
		}

		rec := types.BatchRecord{
			OriginalTitle: row.Title,
			BibliographicRecord: types.BibliographicRecord{
				URL:          row.URL,
				PersistentID: types.NotAvailable,
			},
		}

		id, err := identifier.Resolve(row.URL)
		if err != nil {
			rec.Error = ErrNoIdentifier
			fmt.Fprintf(w, "failed:  %q (%s)\n", row.Title, ErrNoIdentifier)
			summary.Failed++
			summary.Records = append(summary.Records, rec)
			e.Metrics.RecordBatchRow("no_identifier")
			continue
		}

		meta, err := resolver.Resolve(ctx, id)
		meta.URL = row.URL
		rec.BibliographicRecord = meta
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", identifier.Prefixed(id), err)
			summary.Failed++
			e.Metrics.RecordBatchRow("metadata_error")
		} else {
			fmt.Fprintf(w, "resolved: %s doi=%s\n", identifier.Prefixed(id), meta.PersistentID)
			summary.Resolved++
			e.Metrics.RecordBatchRow("resolved")
		}
		summary.Records = append(summary.Records, rec)

		if e.Config.Batch.WithVisuals {
			e.batchVisuals(ctx, id, row.URL, w)
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d resolved, %d failed (total: %d)\n",
		summary.Resolved, summary.Failed, summary.Total())
	return summary
}

// batchVisuals runs a full extraction for one row into its own directory.
// Each row gets its own registry; batch row counters stay on e.Metrics.
func (e *Extractor) batchVisuals(ctx context.Context, id, reference string, w io.Writer) {
	sub := *e
	sub.Metrics = metrics.New()
	sub.Config.OutputDir = filepath.Join(e.Config.OutputDir, identifier.Prefixed(id))
	sub.Config.CatalogPath = e.CatalogPath()

	result := sub.Run(ctx, reference)
	if err := sub.Persist(ctx, result); err != nil {
		fmt.Fprintf(w, "  visuals: persist failed: %v\n", err)
		return
	}
	if !result.HasVisuals() {
		fmt.Fprintf(w, "  visuals: %s\n", result.FetchError)
		return
	}
	fmt.Fprintf(w, "  visuals: %d figures, %d tables, %d images\n",
		len(result.Figures), len(result.Tables), len(result.Images))
}

// sleep waits d or until ctx is done. It reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ReadBatch loads batch rows from a local CSV file or an http(s) URL.
func ReadBatch(ctx context.Context, client *http.Client, source string) ([]types.BatchRow, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening batch file: %w", err)
		}
		defer f.Close()
		return ParseBatch(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching batch file: %w", err)
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("fetching batch file: %w", err)
	}
	return ParseBatch(resp.Body)
}

// ParseBatch reads CSV with a header row. The title column is "Title" and
// the link column is "Link" or "URL"; header matching ignores case.
func ParseBatch(r io.Reader) ([]types.BatchRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading batch header: %w", err)
	}
	titleCol, linkCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "title":
			titleCol = i
		case "link":
			linkCol = i
		case "url":
			if linkCol < 0 {
				linkCol = i
			}
		}
	}
	if linkCol < 0 {
		return nil, fmt.Errorf("batch header has no Link or URL column: %v", header)
	}

	var rows []types.BatchRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading batch row %d: %w", len(rows)+2, err)
		}
		row := types.BatchRow{URL: strings.TrimSpace(field(rec, linkCol))}
		if titleCol >= 0 {
			row.Title = strings.TrimSpace(field(rec, titleCol))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

var batchCSVHeader = []string{
	"original_title", "url", "pmcid", "title", "journal", "pubdate",
	"authors", "doi", "doi_source", "error",
}

// WriteBatch writes the records to dir as JSON and CSV. Authors are joined
// with "; " in the CSV.
func WriteBatch(records []types.BatchRecord, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if records == nil {
		records = []types.BatchRecord{}
	}
	if err := writeJSON(filepath.Join(dir, BatchJSONFile), records); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, BatchCSVFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", BatchCSVFile, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(batchCSVHeader); err != nil {
		return fmt.Errorf("writing %s: %w", BatchCSVFile, err)
	}
	for _, r := range records {
		row := []string{
			r.OriginalTitle, r.URL, r.SourceID, r.Title, r.Journal, r.PublicationDate,
			strings.Join(r.Authors, "; "), r.PersistentID, r.PersistentIDSource, r.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", BatchCSVFile, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", BatchCSVFile, err)
	}
	return f.Close()
}
