package main

import (
	"fmt"

	"review-reconciler/core/submitter"

	"github.com/spf13/cobra"
)

var analyzeFlags struct {
	repo   string
	apiURL string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Trigger an analysis of a GitHub repository and wait for its reports",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.repo, "repo", "", "GitHub repository URL (required)")
	f.StringVar(&analyzeFlags.apiURL, "api", "", "Analysis API base URL; defaults to API_BASE_URL")

	_ = analyzeCmd.MarkFlagRequired("repo")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	apiURL := analyzeFlags.apiURL
	if apiURL == "" {
		apiURL = e.cfg.APIBaseURL
	}
	if apiURL == "" {
		return fmt.Errorf("no analysis API: pass --api or set API_BASE_URL")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Triggering analysis for %s...\n", analyzeFlags.repo)

	handle, err := submitter.NewClient(apiURL, nil, e.logger).Submit(cmd.Context(), analyzeFlags.repo)
	if err != nil {
		return fmt.Errorf("API Error: %w", err)
	}

	source := rootFlags.source
	if source == "" {
		source = handle.StoreLocation(e.cfg.StoreBackend)
	}
	fmt.Fprintf(out, "Analysis jobs triggered (run %s). Polling %s for results...\n", handle.RunID, source)

	result := e.poller.Poll(cmd.Context(), source)
	return printResult(out, result)
}
