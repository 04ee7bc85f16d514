package models

import "time"

// Default polling bounds: 30 attempts, 5 seconds apart
const (
	DefaultMaxAttempts  = 30
	DefaultPollInterval = 5 * time.Second
)

// TimedOutMessage is shown to users when a session exhausts its attempts
const TimedOutMessage = "Polling timed out. Results may take longer."

// SessionState represents where a poll session is in its lifecycle
type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionFetching   SessionState = "fetching"
	SessionIncomplete SessionState = "incomplete"
	SessionComplete   SessionState = "complete"
	SessionTimedOut   SessionState = "timed_out"
)

// Terminal reports whether no further attempts will be made
func (s SessionState) Terminal() bool {
	return s == SessionComplete || s == SessionTimedOut
}

// PollSession holds the bounded-retry state of one polling sequence.
// It is a value; each step returns an updated copy.
type PollSession struct {
	AttemptsUsed   int
	MaxAttempts    int
	Interval       time.Duration
	SourceLocation string
	State          SessionState
	StartedAt      time.Time
}

// NewPollSession creates an idle session for a content store location
func NewPollSession(sourceLocation string, maxAttempts int, interval time.Duration) PollSession {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if interval < 0 {
		interval = DefaultPollInterval
	}
	return PollSession{
		MaxAttempts:    maxAttempts,
		Interval:       interval,
		SourceLocation: sourceLocation,
		State:          SessionIdle,
	}
}

// Remaining returns how many attempts are left
func (s PollSession) Remaining() int {
	if s.AttemptsUsed >= s.MaxAttempts {
		return 0
	}
	return s.MaxAttempts - s.AttemptsUsed
}

// Attempt is the observation made by one fetch pair
type Attempt struct {
	Number   int
	Review   Artifact
	Debt     Artifact
	Complete bool
	Snapshot *Snapshot
	Err      error // Set when the attempt itself failed, e.g. a panicking store
}

// Outcome is what a single step decided
type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeComplete Outcome = "complete"
	OutcomeTimedOut Outcome = "timed_out"
)

// ResultStatus is the consumer-facing signal of a load or poll
type ResultStatus string

const (
	ResultComplete   ResultStatus = "complete"
	ResultIncomplete ResultStatus = "incomplete"
	ResultTimedOut   ResultStatus = "timed_out"
	ResultCancelled  ResultStatus = "cancelled"
)

// Result is returned from every poll or load; Snapshot is set only when Status is complete
type Result struct {
	Status   ResultStatus
	Snapshot *Snapshot
	Session  PollSession
	Message  string
}

// Complete reports whether the result carries a snapshot
func (r Result) Complete() bool {
	return r.Status == ResultComplete && r.Snapshot != nil
}
