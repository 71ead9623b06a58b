// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-extractor/internal/catalog"
	"github.com/pdiddy/paper-extractor/internal/extract"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect earlier extraction runs",
	Long: `Catalog reads the SQLite database that extract and batch --visuals
update after every run. Use list to see recent runs and show to print the
artifacts of one run.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent extraction runs",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

func init() {
	for _, c := range []*cobra.Command{catalogListCmd, catalogShowCmd} {
		d := types.DefaultExtractionConfig()
		c.Flags().StringP("output", "o", d.OutputDir, "output directory holding catalog.db")
		c.Flags().String("catalog", d.CatalogPath, "catalog database (default <output>/catalog.db)")
		c.Flags().Bool("json", false, "print JSON instead of a table")
	}
	catalogListCmd.Flags().Int("limit", catalog.DefaultListLimit, "number of runs to list")
	catalogShowCmd.Flags().String("kind", "", "only show artifacts of this kind (figure, table, image)")

	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return catalog.Open(extract.New(cfg, logger).CatalogPath())
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	// --limit here counts runs, not batch rows, so it is read directly.
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return encodeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-5s  %-5s  %-5s  %s\n",
		"Run", "Extracted", "PMCID", "Figs", "Tabs", "Imgs", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		title := r.Title
		if r.FetchError != "" {
			title = "(fetch failed) " + title
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-5d  %-5d  %-5d  %s\n",
			r.ID, r.ExtractedAt.Format("2006-01-02 15:04:05"), r.CanonicalID,
			r.Figures, r.Tables, r.Images, shorten(title, 40))
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("kind")
	artifacts, err := store.Artifacts(ctx, run.ID, types.ArtifactKind(kind))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return encodeJSON(w, struct {
			Run       catalog.Run      `json:"run"`
			Artifacts []types.Artifact `json:"artifacts"`
		}{run, artifacts})
	}

	fmt.Fprintf(w, "run:       %s\n", run.ID)
	fmt.Fprintf(w, "url:       %s\n", run.SourceReference)
	fmt.Fprintf(w, "extracted: %s\n", run.ExtractedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "pmcid:     %s\n", run.CanonicalID)
	fmt.Fprintf(w, "doi:       %s\n", run.PersistentID)
	fmt.Fprintf(w, "output:    %s\n", run.OutputDir)
	if run.FetchError != "" {
		fmt.Fprintf(w, "error:     %s\n", run.FetchError)
	}
	fmt.Fprintln(w)

	for _, a := range artifacts {
		label := fmt.Sprintf("%s %d", a.Kind, a.Number)
		if a.Pass > 0 {
			label += fmt.Sprintf(" (pass %d)", a.Pass)
		}
		path := a.LocalPath
		if path == "" {
			path = "(not saved)"
		}
		fmt.Fprintf(w, "%-20s  %s\n", label, path)
		if text := firstNonEmpty(a.Caption, a.AltText); text != "" {
			fmt.Fprintf(w, "%-20s  %s\n", "", shorten(text, 80))
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
