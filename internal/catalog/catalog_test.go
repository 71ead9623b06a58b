// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", FileName))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(id string, at time.Time) *types.ExtractionResult {
	r := &types.ExtractionResult{
		RunID:           id,
		SourceReference: "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/",
		ExtractedAt:     at,
		OutputDir:       "extracted_paper",
		CanonicalID:     "4136787",
		Bibliographic: &types.BibliographicRecord{
			SourceID:     "4136787",
			Title:        "Sample paper",
			PersistentID: "10.1371/journal.pone.0104830",
		},
		Figures: []types.Artifact{
			{Kind: types.KindFigure, Number: 1, Pass: 1, Caption: "Fig. 1", ImageURL: "https://x/f1.jpg", LocalPath: "images/figure_1-1.jpg", SHA256: "abc", Width: 640, Height: 480},
			{Kind: types.KindFigure, Number: 1, Pass: 3, Caption: "Fig. 1", ImageURL: "https://x/f1.jpg"},
		},
		Tables: []types.Artifact{
			{Kind: types.KindTable, Number: 1, Caption: "Table 1", LocalPath: "tables/table_1.html", Rows: [][]string{{"a", "b"}, {"1", "2"}}},
		},
		Images: []types.Artifact{
			{Kind: types.KindImage, Number: 1, AltText: "photo", ImageURL: "https://x/p.png"},
		},
	}
	r.Recount()
	return r
}

func TestRecordAndListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordRun(ctx, sampleResult("run-old", base)))
	require.NoError(t, s.RecordRun(ctx, sampleResult("run-new", base.Add(time.Hour))))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)

	r := runs[0]
	assert.Equal(t, "4136787", r.CanonicalID)
	assert.Equal(t, "Sample paper", r.Title)
	assert.Equal(t, "10.1371/journal.pone.0104830", r.PersistentID)
	assert.Equal(t, 2, r.Figures)
	assert.Equal(t, 1, r.Tables)
	assert.Equal(t, 1, r.Images)
	assert.Equal(t, 4, r.Total)
	assert.True(t, base.Add(time.Hour).Equal(r.ExtractedAt))

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestArtifactsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, sampleResult("run-1", time.Now())))

	all, err := s.Artifacts(ctx, "run-1", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, types.KindFigure, all[0].Kind)
	assert.Equal(t, 1, all[0].Pass)
	assert.Equal(t, 3, all[1].Pass)
	assert.Equal(t, "abc", all[0].SHA256)
	assert.Equal(t, 640, all[0].Width)
	assert.Equal(t, types.KindTable, all[2].Kind)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, all[2].Rows)
	assert.Equal(t, types.KindImage, all[3].Kind)
	assert.Equal(t, "photo", all[3].AltText)

	tables, err := s.Artifacts(ctx, "run-1", types.KindTable)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "tables/table_1.html", tables[0].LocalPath)
}

func TestRecordRunReplacesArtifacts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := sampleResult("run-1", time.Now())
	require.NoError(t, s.RecordRun(ctx, r))

	r.Figures = nil
	r.Images = nil
	r.FetchError = "fetching: HTTP 503"
	r.Recount()
	require.NoError(t, s.RecordRun(ctx, r))

	all, err := s.Artifacts(ctx, "run-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Total)
	assert.Equal(t, "fetching: HTTP 503", run.FetchError)
}

func TestRecordRunWithoutMetadata(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := &types.ExtractionResult{
		RunID:           "run-bare",
		SourceReference: "https://example.org/paper",
		ExtractedAt:     time.Now(),
		IdentifierError: "no canonical identifier",
	}
	require.NoError(t, s.RecordRun(ctx, r))

	run, err := s.GetRun(ctx, "run-bare")
	require.NoError(t, err)
	assert.Empty(t, run.CanonicalID)
	assert.Empty(t, run.Title)
}

func TestGetRunMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRecordRunRequiresID(t *testing.T) {
	s := openTestStore(t)
	err := s.RecordRun(context.Background(), &types.ExtractionResult{})
	assert.Error(t, err)
}
