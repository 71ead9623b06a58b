// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-extractor/internal/extract"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <csv path or url>",
	Short: "Resolve metadata for every paper listed in a CSV",
	Long: `Batch reads a CSV with Title and Link (or URL) columns from a local file
or an http(s) address and resolves bibliographic metadata for each row, one
at a time with a fixed delay between rows. Results are written to
papers_metadata.json and papers_metadata.csv in the output directory.

With --visuals every row is also fully extracted into <output>/PMC<id>/.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	addOutputFlags(batchCmd)
	d := types.DefaultExtractionConfig().Batch
	batchCmd.Flags().Int("limit", d.Limit, "process at most this many rows (0 = all)")
	batchCmd.Flags().Duration("delay", d.Delay, "pause between consecutive rows")
	batchCmd.Flags().Bool("visuals", d.WithVisuals, "also extract figures, tables and images for each row")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rows, err := extract.ReadBatch(ctx, &http.Client{Timeout: cfg.Timeout}, args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "rows: %d", len(rows))
	if cfg.Batch.Limit > 0 {
		fmt.Fprintf(w, " (limit %d)", cfg.Batch.Limit)
	}
	fmt.Fprintln(w)

	e := extract.New(cfg, logger)
	summary := e.RunBatch(ctx, rows, w)

	if err := extract.WriteBatch(summary.Records, cfg.OutputDir); err != nil {
		return err
	}
	fmt.Fprintf(w, "saved: %s\n", filepath.Join(cfg.OutputDir, extract.BatchJSONFile))
	fmt.Fprintf(w, "saved: %s\n", filepath.Join(cfg.OutputDir, extract.BatchCSVFile))

	if err := e.Metrics.WriteTextfile(filepath.Join(cfg.OutputDir, extract.MetricsFile)); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
