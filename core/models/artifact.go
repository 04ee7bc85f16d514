package models

import (
	"errors"
	"time"
)

// Well-known artifact keys relative to a content store base location
const (
	ReviewArtifactKey = "reports/code_review_latest.json"
	DebtArtifactKey   = "reports/technical_debt_latest.json"
)

// StatusProcessing is the status field value a producer writes while it is still working
const StatusProcessing = "processing"

// Failure classes recorded on an Artifact. None of them escape a poll attempt.
var (
	// ErrTransientAbsence means the artifact has not been produced yet
	ErrTransientAbsence = errors.New("artifact not yet available")
	// ErrStoreUnreachable means the content store could not be reached or answered with an error
	ErrStoreUnreachable = errors.New("content store unreachable")
	// ErrMalformedArtifact means the artifact body is not a structured document
	ErrMalformedArtifact = errors.New("malformed artifact")
)

// ArtifactState represents the lifecycle state of an artifact as observed by one fetch
type ArtifactState string

const (
	ArtifactAbsent     ArtifactState = "absent"
	ArtifactProcessing ArtifactState = "processing"
	ArtifactComplete   ArtifactState = "complete"
	ArtifactMalformed  ArtifactState = "malformed"
)

// Artifact is one named unit of asynchronously produced report data
type Artifact struct {
	Key       string
	State     ArtifactState
	Payload   map[string]interface{} // Set only when State is complete
	Err       error                  // Why the artifact is absent or malformed
	FetchedAt time.Time
}

// Present reports whether the fetch reached the artifact at all
func (a Artifact) Present() bool {
	return a.State != ArtifactAbsent && a.State != ""
}

// Processing reports whether the producer marked the artifact as in progress
func (a Artifact) Processing() bool {
	return a.State == ArtifactProcessing
}
