// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-extractor CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-extractor/internal/logging"
	"github.com/pdiddy/paper-extractor/internal/secrets"
	"github.com/pdiddy/paper-extractor/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from the secrets directory at startup.
	loadedSecrets map[string]string

	// logger is configured from --log-level and --log-format before any
	// subcommand runs.
	logger = zerolog.Nop()
)

// rootCmd is the base command for the paper-extractor CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-extractor",
	Short: "Extract metadata, figures, tables and images from PMC papers",
	Long: `paper-extractor resolves bibliographic metadata for PubMed Central papers
through NCBI E-utilities and extracts figures, tables, and standalone images
from the rendered article page.

Use extract for a single paper, batch for a CSV of papers, and catalog to
inspect earlier runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		logger = logging.New(level, format, os.Stderr)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-extractor.yaml or ~/.config/paper-extractor/paper-extractor.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console or json)")
	pf.String("secrets-dir", secrets.DefaultDir, "directory holding ncbi-api-key and ncbi-email files")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-extractor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-extractor"))
		}
	}

	viper.SetEnvPrefix("PAPER_EXTRACTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// flagKeys maps command-line flags to their configuration keys.
var flagKeys = map[string]string{
	"output":         "output_dir",
	"timeout":        "timeout",
	"user-agent":     "user_agent",
	"catalog":        "catalog_path",
	"api-key":        "metadata.api_key",
	"email":          "metadata.email",
	"numbering":      "classifier.numbering",
	"strictness":     "classifier.exclusion.strictness",
	"dedupe-figures": "classifier.dedupe_figures",
	"limit":          "batch.limit",
	"delay":          "batch.delay",
	"visuals":        "batch.with_visuals",
}

// loadConfig binds the flags cmd defines, then layers config file,
// environment, and flags over the defaults. Secrets fill credentials that
// no other source set.
func loadConfig(cmd *cobra.Command) (types.ExtractionConfig, error) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return types.ExtractionConfig{}, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	cfg := types.DefaultExtractionConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.ExtractionConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	secrets.Apply(&cfg.Metadata, loadedSecrets)
	if err := cfg.Validate(); err != nil {
		return types.ExtractionConfig{}, err
	}
	return cfg, nil
}

// addOutputFlags registers the flags shared by extract and batch. Defaults
// mirror DefaultExtractionConfig so an unset flag never masks a config
// file value with a zero.
func addOutputFlags(cmd *cobra.Command) {
	d := types.DefaultExtractionConfig()
	f := cmd.Flags()
	f.StringP("output", "o", d.OutputDir, "output directory")
	f.Duration("timeout", d.Timeout, "HTTP request timeout")
	f.String("user-agent", d.UserAgent, "User-Agent sent with every request")
	f.String("catalog", d.CatalogPath, "catalog database (default <output>/catalog.db)")
	f.String("api-key", "", "NCBI E-utilities API key (default from .secrets/ncbi-api-key)")
	f.String("email", "", "contact email sent to NCBI (default from .secrets/ncbi-email)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
