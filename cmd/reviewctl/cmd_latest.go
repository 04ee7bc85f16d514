package main

import (
	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Load the reports once without waiting",
	RunE:  runLatest,
}

func runLatest(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	source, err := e.source()
	if err != nil {
		return err
	}

	result := e.poller.LoadOnce(cmd.Context(), source)
	return printResult(cmd.OutOrStdout(), result)
}
