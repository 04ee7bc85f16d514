package models

import "time"

// RunEvent records one poll attempt of a run
type RunEvent struct {
	ID          int64
	RunID       string
	Attempt     int
	At          time.Time
	ReviewState ArtifactState
	DebtState   ArtifactState
	Complete    bool
	Reason      string // Failure class of the attempt, empty when nothing failed
}
