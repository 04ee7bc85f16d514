package models

import "time"

// Run represents one triggered analysis of a repository
type Run struct {
	ID             string
	RepoURL        string
	SourceLocation string // Content store base the run is polled from
	Status         RunStatus
	Attempts       int
	Snapshot       *SnapshotView
	Message        string // Verbatim submission error or timeout message
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FinishedAt     *time.Time
}

// RunStatus represents the current status of a run
type RunStatus string

const (
	RunStatusPolling  RunStatus = "polling"
	RunStatusComplete RunStatus = "complete"
	RunStatusTimedOut RunStatus = "timed_out"
	RunStatusFailed   RunStatus = "failed"
)

// RunStatusFor maps a poll result to the run status it ends in
func RunStatusFor(status ResultStatus) RunStatus {
	switch status {
	case ResultComplete:
		return RunStatusComplete
	case ResultTimedOut:
		return RunStatusTimedOut
	default:
		return RunStatusFailed
	}
}
