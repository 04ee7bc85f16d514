package poller

import "review-reconciler/core/models"

// Advance applies one attempt to a session and decides what happens next.
// It is pure: the returned session is a modified copy.
func Advance(session models.PollSession, attempt models.Attempt) (models.PollSession, models.Outcome) {
	switch session.State {
	case models.SessionComplete:
		return session, models.OutcomeComplete
	case models.SessionTimedOut:
		return session, models.OutcomeTimedOut
	}

	session.AttemptsUsed++
	switch {
	case attempt.Complete:
		session.State = models.SessionComplete
		return session, models.OutcomeComplete
	case session.AttemptsUsed >= session.MaxAttempts:
		session.State = models.SessionTimedOut
		return session, models.OutcomeTimedOut
	default:
		session.State = models.SessionIncomplete
		return session, models.OutcomeContinue
	}
}
