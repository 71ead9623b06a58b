// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records extraction runs and their artifacts in a SQLite
// database so earlier runs can be listed and inspected without re-reading
// every paper_data.json.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

// FileName is the catalog database file created in the output directory
// when no explicit path is configured.
const FileName = "catalog.db"

// timeLayout keeps fractional seconds fixed-width so stored timestamps
// sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultListLimit bounds ListRuns when the caller passes no limit.
const DefaultListLimit = 20

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// Run is one catalog row describing a past extraction.
type Run struct {
	ID              string    `json:"run_id"`
	SourceReference string    `json:"source_url"`
	CanonicalID     string    `json:"pmcid,omitempty"`
	Title           string    `json:"title,omitempty"`
	PersistentID    string    `json:"doi,omitempty"`
	OutputDir       string    `json:"output_directory"`
	ExtractedAt     time.Time `json:"extraction_date"`
	Figures         int       `json:"figures"`
	Tables          int       `json:"tables"`
	Images          int       `json:"images"`
	Total           int       `json:"total_elements"`
	FetchError      string    `json:"fetch_error,omitempty"`
}

// Open opens or creates the catalog at path, creating the parent directory
// and schema when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_url TEXT NOT NULL,
			pmcid TEXT,
			title TEXT,
			doi TEXT,
			output_dir TEXT,
			extracted_at TEXT NOT NULL,
			figures INTEGER NOT NULL DEFAULT 0,
			tables INTEGER NOT NULL DEFAULT 0,
			images INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			fetch_error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			seq INTEGER NOT NULL,
			number INTEGER NOT NULL,
			selector_pass INTEGER,
			caption TEXT,
			alt_text TEXT,
			image_url TEXT,
			local_path TEXT,
			sha256 TEXT,
			width INTEGER,
			height INTEGER,
			data TEXT,
			PRIMARY KEY (run_id, kind, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_pmcid ON runs(pmcid)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(run_id, kind)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun upserts the run and replaces its artifacts in one transaction.
func (s *Store) RecordRun(ctx context.Context, r *types.ExtractionResult) error {
	if r.RunID == "" {
		return fmt.Errorf("recording run: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var title, doi string
	if b := r.Bibliographic; b != nil {
		title, doi = b.Title, b.PersistentID
	}

	upsert := sq.Insert("runs").
		Columns("id", "source_url", "pmcid", "title", "doi", "output_dir",
			"extracted_at", "figures", "tables", "images", "total", "fetch_error").
		Values(r.RunID, r.SourceReference, r.CanonicalID, title, doi, r.OutputDir,
			r.ExtractedAt.UTC().Format(timeLayout),
			len(r.Figures), len(r.Tables), len(r.Images), r.TotalCount, r.FetchError).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			source_url=excluded.source_url, pmcid=excluded.pmcid, title=excluded.title,
			doi=excluded.doi, output_dir=excluded.output_dir, extracted_at=excluded.extracted_at,
			figures=excluded.figures, tables=excluded.tables, images=excluded.images,
			total=excluded.total, fetch_error=excluded.fetch_error`)
	if _, err := upsert.RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if _, err := sq.Delete("artifacts").Where(sq.Eq{"run_id": r.RunID}).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("deleting old artifacts: %w", err)
	}

	var all []types.Artifact
	all = append(all, r.Figures...)
	all = append(all, r.Tables...)
	all = append(all, r.Images...)
	if len(all) > 0 {
		insert := sq.Insert("artifacts").Columns(
			"run_id", "kind", "seq", "number", "selector_pass", "caption", "alt_text",
			"image_url", "local_path", "sha256", "width", "height", "data")
		seq := make(map[types.ArtifactKind]int)
		for _, a := range all {
			seq[a.Kind]++
			var data string
			if len(a.Rows) > 0 {
				raw, _ := json.Marshal(a.Rows)
				data = string(raw)
			}
			insert = insert.Values(r.RunID, string(a.Kind), seq[a.Kind], a.Number, a.Pass,
				a.Caption, a.AltText, a.ImageURL, a.LocalPath, a.SHA256, a.Width, a.Height, data)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("inserting artifacts: %w", err)
		}
	}

	return tx.Commit()
}

var runColumns = []string{
	"id", "source_url", "pmcid", "title", "doi", "output_dir", "extracted_at",
	"figures", "tables", "images", "total", "fetch_error",
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := sq.Select(runColumns...).From("runs").
		OrderBy("extracted_at DESC").
		Limit(uint64(limit))

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id, or sql.ErrNoRows wrapped when absent.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := sq.Select(runColumns...).From("runs").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).QueryRowContext(ctx)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", id, err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                                Run
		pmcid, title, doi, outDir, fetched sql.NullString
		extractedAt                        string
	)
	err := row.Scan(&run.ID, &run.SourceReference, &pmcid, &title, &doi, &outDir,
		&extractedAt, &run.Figures, &run.Tables, &run.Images, &run.Total, &fetched)
	if err != nil {
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	run.CanonicalID = pmcid.String
	run.Title = title.String
	run.PersistentID = doi.String
	run.OutputDir = outDir.String
	run.FetchError = fetched.String
	run.ExtractedAt, _ = time.Parse(timeLayout, extractedAt)
	return run, nil
}

// Artifacts returns the stored artifacts of a run in insertion order. An
// empty kind returns every kind.
func (s *Store) Artifacts(ctx context.Context, runID string, kind types.ArtifactKind) ([]types.Artifact, error) {
	where := sq.Eq{"run_id": runID}
	if kind != "" {
		where["kind"] = string(kind)
	}
	query := sq.Select("kind", "number", "selector_pass", "caption", "alt_text",
		"image_url", "local_path", "sha256", "width", "height", "data").
		From("artifacts").
		Where(where).
		OrderBy("CASE kind WHEN 'figure' THEN 0 WHEN 'table' THEN 1 ELSE 2 END", "seq")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []types.Artifact
	for rows.Next() {
		var (
			a                                       types.Artifact
			kindStr                                 string
			caption, alt, imageURL, local, sum, raw sql.NullString
			pass, width, height                     sql.NullInt64
		)
		if err := rows.Scan(&kindStr, &a.Number, &pass, &caption, &alt, &imageURL,
			&local, &sum, &width, &height, &raw); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Kind = types.ArtifactKind(kindStr)
		a.Pass = int(pass.Int64)
		a.Caption = caption.String
		a.AltText = alt.String
		a.ImageURL = imageURL.String
		a.LocalPath = local.String
		a.SHA256 = sum.String
		a.Width = int(width.Int64)
		a.Height = int(height.Int64)
		if raw.String != "" {
			if err := json.Unmarshal([]byte(raw.String), &a.Rows); err != nil {
				return nil, fmt.Errorf("decoding table rows: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
