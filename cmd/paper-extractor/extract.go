// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-extractor/internal/extract"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract metadata and visual elements from one paper",
	Long: `Extract resolves the paper's PMC identifier and bibliographic metadata,
then fetches the article page and saves its figures, tables and standalone
images under the output directory alongside paper_data.json.

The command fails only when the article page itself could not be fetched;
missing metadata is reported but does not change the exit status.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	addOutputFlags(extractCmd)
	d := types.DefaultExtractionConfig().Classifier
	extractCmd.Flags().String("numbering", string(d.Numbering), "figure numbering: per-pass or document")
	extractCmd.Flags().String("strictness", string(d.Exclusion.Strictness), "image exclusion: strict or lenient")
	extractCmd.Flags().Bool("dedupe-figures", d.DedupeFigures, "drop figures already matched by an earlier selector")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "url:    %s\n", args[0])
	fmt.Fprintf(w, "output: %s\n\n", cfg.OutputDir)

	ctx := context.Background()
	e := extract.New(cfg, logger)
	result := e.Run(ctx, args[0])
	printResult(w, result)

	if err := e.Persist(ctx, result); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nsaved: %s\n", filepath.Join(cfg.OutputDir, extract.ResultFile))

	if !result.HasVisuals() {
		return fmt.Errorf("visual extraction failed: %s", result.FetchError)
	}
	return nil
}

func printResult(w io.Writer, r *types.ExtractionResult) {
	switch {
	case r.IdentifierError != "":
		fmt.Fprintf(w, "metadata: skipped (%s)\n", r.IdentifierError)
	case r.Bibliographic == nil:
		fmt.Fprintln(w, "metadata: unavailable")
	case r.Bibliographic.Failed():
		fmt.Fprintf(w, "metadata: error: %s\n", r.Bibliographic.Error)
	default:
		b := r.Bibliographic
		fmt.Fprintf(w, "metadata: PMC%s\n", b.SourceID)
		fmt.Fprintf(w, "  title:   %s\n", shorten(b.Title, 60))
		fmt.Fprintf(w, "  authors: %d\n", len(b.Authors))
		fmt.Fprintf(w, "  journal: %s\n", b.Journal)
		fmt.Fprintf(w, "  doi:     %s\n", b.PersistentID)
	}

	if !r.HasVisuals() {
		fmt.Fprintf(w, "visuals:  error: %s\n", r.FetchError)
		return
	}
	fmt.Fprintln(w, "visuals:")
	fmt.Fprintf(w, "  figures: %d\n", len(r.Figures))
	fmt.Fprintf(w, "  tables:  %d\n", len(r.Tables))
	fmt.Fprintf(w, "  images:  %d\n", len(r.Images))
	fmt.Fprintf(w, "  total:   %d\n", r.TotalCount)
}

// shorten cuts s to n runes with a trailing ellipsis.
func shorten(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
