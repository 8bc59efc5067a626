// Package main provides the pm CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/config"
	"github.com/matsen/papermerge/internal/fetch"
	"github.com/matsen/papermerge/internal/logging"
	"github.com/matsen/papermerge/internal/providers"
	"github.com/matsen/papermerge/internal/source"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
	quiet       bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// SilenceErrors is set, so cobra errors (bad flags, missing args) are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pm",
	Short: "Fetch and merge paper metadata from academic providers",
	Long: `pm looks papers up in several academic metadata providers and merges
what they return into one record per paper.

Providers:
  - PaperShelf (library records by id)
  - arXiv (preprints; search and fetch)
  - Semantic Scholar (citation graph; search and fetch)
  - CrossRef (DOI registry)
  - OpenReview (conference submissions)

All commands output JSON by default; pass --human for tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// .env is optional; S2_API_KEY and PM_PAPERS_FILE may live there.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log_level in config")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress messages and logs")
	rootCmd.Version = Version
}

// app bundles what every provider-facing command needs.
type app struct {
	cfg          *config.GlobalConfig
	logger       *slog.Logger
	registry     *source.Registry
	orchestrator *fetch.Orchestrator
}

// mustSetup loads configuration and builds the provider registry, exits on
// error.
func mustSetup() *app {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%s: %v", config.GlobalConfigPath(), err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(logging.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		exitWithError(ExitConfigError, "configuring logging: %v", err)
	}
	if quiet {
		logger = logging.Discard()
	}

	registry, err := providers.NewRegistry(providers.FromConfig(cfg))
	if err != nil {
		exitWithError(ExitError, "building provider registry: %v", err)
	}

	timeout, _ := cfg.Timeout() // validated above
	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		orchestrator: fetch.New(registry,
			fetch.WithLogger(logger),
			fetch.WithProviderTimeout(timeout)),
	}
}
