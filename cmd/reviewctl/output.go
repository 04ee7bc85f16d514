package main

import (
	"encoding/json"
	"fmt"
	"io"

	"review-reconciler/core/models"
)

// printResult writes the snapshot as JSON, or the status line when there is none
func printResult(out io.Writer, result models.Result) error {
	switch result.Status {
	case models.ResultComplete:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Snapshot.View())
	case models.ResultTimedOut:
		fmt.Fprintln(out, result.Message)
	case models.ResultCancelled:
		fmt.Fprintln(out, result.Message)
	default:
		fmt.Fprintln(out, "Reports are still processing.")
	}
	return nil
}
