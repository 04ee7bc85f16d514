package main

import (
	"context"
	"fmt"
	"os"

	"review-reconciler/config"
	"review-reconciler/core/fetcher"
	"review-reconciler/core/poller"
	"review-reconciler/logging"
	"review-reconciler/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	source   string
	backend  string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "reviewctl",
	Short: "Fetch and reconcile code review and technical debt reports",
	Long: "reviewctl reads the code review and technical debt reports from a content store,\n" +
		"waits for both to finish processing and prints the merged snapshot.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.source, "source", "", "Content store base (URL or S3 bucket); defaults to the configured location")
	f.StringVar(&rootFlags.backend, "backend", "", "Store backend: http or s3; defaults to STORE_BACKEND")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level; defaults to LOG_LEVEL")

	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.Version = version
}

// env bundles what every subcommand needs
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	poller *poller.ReconcilingPoller
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if rootFlags.backend != "" {
		cfg.StoreBackend = rootFlags.backend
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return nil, err
	}

	store, err := storage.NewContentStore(ctx, cfg.StoreBackend, cfg.AWSRegion, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content store: %w", err)
	}

	p := poller.NewReconcilingPoller(fetcher.NewArtifactFetcher(store, fetcher.WithLogger(logger)),
		poller.WithMaxAttempts(cfg.MaxAttempts),
		poller.WithInterval(cfg.PollInterval),
		poller.WithRequireWellFormed(cfg.RequireWellFormed),
		poller.WithLogger(logger),
	)
	return &env{cfg: cfg, logger: logger, poller: p}, nil
}

func (e *env) source() (string, error) {
	if rootFlags.source != "" {
		return rootFlags.source, nil
	}
	if loc := e.cfg.StoreLocation(); loc != "" {
		return loc, nil
	}
	return "", fmt.Errorf("no content store location: pass --source or set REPORTS_BUCKET")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
