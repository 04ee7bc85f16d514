package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"review-reconciler/core/models"
	"review-reconciler/core/poller"
	"review-reconciler/core/submitter"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	handle *submitter.Handle
	err    error
}

func (f *fakeSubmitter) Submit(context.Context, string) (*submitter.Handle, error) {
	return f.handle, f.err
}

type memoryStore struct {
	mu     sync.Mutex
	runs   map[string]*models.Run
	events map[string][]models.Attempt
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: map[string]*models.Run{}, events: map[string][]models.Attempt{}}
}

func (s *memoryStore) CreateRun(_ context.Context, run *models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = uuid.NewString()
	stored := *run
	s.runs[run.ID] = &stored
	return nil
}

func (s *memoryStore) UpdateAttempts(_ context.Context, id string, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[id].Attempts = attempts
	return nil
}

func (s *memoryStore) FinishRun(_ context.Context, id string, status models.RunStatus, attempts int, snapshot *models.Snapshot, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := s.runs[id]
	run.Status = status
	run.Attempts = attempts
	run.Message = message
	if snapshot != nil {
		view := snapshot.View()
		run.Snapshot = &view
	}
	return nil
}

func (s *memoryStore) CreateRunEvent(_ context.Context, runID string, attempt models.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[runID] = append(s.events[runID], attempt)
	return nil
}

func (s *memoryStore) run(id string) models.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.runs[id]
}

type countingSource struct {
	mu        sync.Mutex
	calls     map[string]int
	readyFrom int
	gotBase   string
}

func (c *countingSource) Fetch(_ context.Context, base, key string) models.Artifact {
	c.mu.Lock()
	c.calls[key]++
	n := c.calls[key]
	c.gotBase = base
	c.mu.Unlock()

	if c.readyFrom == 0 || n < c.readyFrom {
		return models.Artifact{Key: key, State: models.ArtifactProcessing}
	}
	return models.Artifact{Key: key, State: models.ArtifactComplete, Payload: map[string]interface{}{"score": 91.0}}
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestAnalyze_TracksRunToCompletion(t *testing.T) {
	store := newMemoryStore()
	src := &countingSource{calls: map[string]int{}, readyFrom: 2}
	p := poller.NewReconcilingPoller(src, poller.WithSleep(noSleep))
	sub := &fakeSubmitter{handle: &submitter.Handle{RunID: "r-1", ReportsBucket: "acme-reports"}}
	tr := NewTracker(sub, p, store, store, "http", nil)

	run, err := tr.Analyze(context.Background(), "https://github.com/acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPolling, run.Status)
	assert.Equal(t, "https://acme-reports.s3.amazonaws.com", run.SourceLocation)

	tr.Wait()

	got := store.run(run.ID)
	assert.Equal(t, models.RunStatusComplete, got.Status)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, 91, got.Snapshot.Score)
	assert.Len(t, store.events[run.ID], 2)
	assert.Equal(t, "https://acme-reports.s3.amazonaws.com", src.gotBase)
}

func TestAnalyze_TimeoutIsRecorded(t *testing.T) {
	store := newMemoryStore()
	src := &countingSource{calls: map[string]int{}}
	p := poller.NewReconcilingPoller(src, poller.WithSleep(noSleep), poller.WithMaxAttempts(4))
	sub := &fakeSubmitter{handle: &submitter.Handle{ReportsBucket: "acme-reports"}}
	tr := NewTracker(sub, p, store, store, "s3", nil)

	run, err := tr.Analyze(context.Background(), "https://github.com/acme/widgets")
	require.NoError(t, err)
	tr.Wait()

	got := store.run(run.ID)
	assert.Equal(t, models.RunStatusTimedOut, got.Status)
	assert.Equal(t, 4, got.Attempts)
	assert.Equal(t, models.TimedOutMessage, got.Message)
	assert.Equal(t, "acme-reports", got.SourceLocation)
}

func TestAnalyze_SubmissionErrorIsReturned(t *testing.T) {
	store := newMemoryStore()
	subErr := &submitter.SubmissionError{StatusCode: 400, Message: "Invalid repository URL"}
	tr := NewTracker(&fakeSubmitter{err: subErr}, poller.NewReconcilingPoller(&countingSource{calls: map[string]int{}}), store, store, "http", nil)

	run, err := tr.Analyze(context.Background(), "https://github.com/acme/widgets")

	assert.Nil(t, run)
	assert.ErrorIs(t, err, subErr)
	assert.Empty(t, store.runs)
}

func TestStop_FinishesAbandonedRuns(t *testing.T) {
	store := newMemoryStore()
	src := &countingSource{calls: map[string]int{}}
	p := poller.NewReconcilingPoller(src, poller.WithInterval(time.Hour))
	sub := &fakeSubmitter{handle: &submitter.Handle{ReportsBucket: "acme-reports"}}
	tr := NewTracker(sub, p, store, store, "http", nil)

	run, err := tr.Analyze(context.Background(), "https://github.com/acme/widgets")
	require.NoError(t, err)

	tr.Stop()

	got := store.run(run.ID)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "Polling cancelled.", got.Message)

	_, err = tr.Analyze(context.Background(), "https://github.com/acme/widgets")
	assert.Error(t, err)
}
