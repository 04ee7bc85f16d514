package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"review-reconciler/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB connects to the database named by TEST_DATABASE_URL or skips
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := NewDB(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestRunRepository_Lifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	runs := NewRunRepository(db)
	events := NewEventRepository(db)

	run := &models.Run{RepoURL: "https://github.com/acme/widgets", SourceLocation: "acme-reports"}
	require.NoError(t, runs.CreateRun(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := runs.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPolling, got.Status)
	assert.Nil(t, got.Snapshot)

	require.NoError(t, events.CreateRunEvent(ctx, run.ID, models.Attempt{
		Number: 1,
		Review: models.Artifact{State: models.ArtifactProcessing},
		Debt:   models.Artifact{State: models.ArtifactAbsent, Err: models.ErrTransientAbsence},
	}))
	require.NoError(t, runs.UpdateAttempts(ctx, run.ID, 1))

	urgency := 40.0
	snapshot := models.NewSnapshot(81, []models.ReviewItem{{Kind: "Style"}},
		[]models.DebtPoint{{Label: "auth.py", Value: &urgency}}, false, time.Now())
	require.NoError(t, runs.FinishRun(ctx, run.ID, models.RunStatusComplete, 2, snapshot, ""))

	got, err = runs.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusComplete, got.Status)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, 81, got.Snapshot.Score)
	assert.NotNil(t, got.FinishedAt)

	evs, err := events.GetRunEvents(ctx, run.ID, 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "transient_absence", evs[0].Reason)
	assert.Equal(t, models.ArtifactProcessing, evs[0].ReviewState)
}

func TestRunRepository_NotFound(t *testing.T) {
	db := testDB(t)
	runs := NewRunRepository(db)

	_, err := runs.GetRun(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = runs.GetRun(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
