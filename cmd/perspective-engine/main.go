// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the perspective-engine CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/perspective-engine/internal/config"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is loaded once before any subcommand runs.
	cfg *types.Config

	logger = zap.NewNop()
)

// rootCmd is the base command for the perspective-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "perspective-engine",
	Short: "Search the web across perspectives and rank results by credibility",
	Long: `perspective-engine queries several search engines with a mainstream and a
fringe variant of the same question, scores every result for credibility, and
optionally fact-checks and summarizes them with Claude.

Completed searches are kept in a local SQLite history that can be listed,
reopened and exported with the history subcommand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		secretsDir, _ := cmd.Flags().GetString("secrets-dir")

		loaded, err := config.Load(cfgFile, secretsDir)
		if err != nil {
			return err
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			loaded.Log.Level = "debug"
		}
		l, err := config.InitLogger(loaded.Log)
		if err != nil {
			return err
		}
		cfg, logger = loaded, l
		logger.Debug("configuration loaded",
			zap.Bool("serpapi_key", cfg.Search.SerpAPIKey != ""),
			zap.Bool("anthropic_key", cfg.AI.APIKey != ""),
			zap.Strings("engines", cfg.Search.Engines),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./perspective-engine.yaml or ~/.config/perspective-engine/perspective-engine.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", config.SecretsDir, "directory holding serpapi-api-key and anthropic-api-key files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
