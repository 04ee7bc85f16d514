package poller

import (
	"testing"

	"review-reconciler/core/models"

	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	session := models.NewPollSession(testBase, 3, 0)

	session, outcome := Advance(session, models.Attempt{})
	assert.Equal(t, models.OutcomeContinue, outcome)
	assert.Equal(t, 1, session.AttemptsUsed)
	assert.Equal(t, models.SessionIncomplete, session.State)

	session, outcome = Advance(session, models.Attempt{})
	assert.Equal(t, models.OutcomeContinue, outcome)

	session, outcome = Advance(session, models.Attempt{})
	assert.Equal(t, models.OutcomeTimedOut, outcome)
	assert.Equal(t, 3, session.AttemptsUsed)
	assert.Equal(t, models.SessionTimedOut, session.State)
	assert.Zero(t, session.Remaining())

	// Terminal sessions do not move
	after, outcome := Advance(session, models.Attempt{Complete: true})
	assert.Equal(t, models.OutcomeTimedOut, outcome)
	assert.Equal(t, session, after)
}

func TestAdvance_CompleteOnLastAttempt(t *testing.T) {
	session := models.NewPollSession(testBase, 1, 0)

	next, outcome := Advance(session, models.Attempt{Complete: true})

	assert.Equal(t, models.OutcomeComplete, outcome)
	assert.Equal(t, models.SessionComplete, next.State)
	assert.Equal(t, 0, session.AttemptsUsed, "input session is not modified")
}
