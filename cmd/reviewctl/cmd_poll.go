package main

import (
	"github.com/spf13/cobra"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Wait until both reports are complete, then print the snapshot",
	RunE:  runPoll,
}

func runPoll(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	source, err := e.source()
	if err != nil {
		return err
	}

	result := e.poller.Poll(cmd.Context(), source)
	return printResult(cmd.OutOrStdout(), result)
}
