package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"review-reconciler/core/models"
	"review-reconciler/core/poller"
	"review-reconciler/core/submitter"

	"go.uber.org/zap"
)

// Submitter triggers report production for a repository
type Submitter interface {
	Submit(ctx context.Context, repoURL string) (*submitter.Handle, error)
}

// RunStore persists runs
type RunStore interface {
	CreateRun(ctx context.Context, run *models.Run) error
	UpdateAttempts(ctx context.Context, id string, attempts int) error
	FinishRun(ctx context.Context, id string, status models.RunStatus, attempts int, snapshot *models.Snapshot, message string) error
}

// EventStore persists poll attempts
type EventStore interface {
	CreateRunEvent(ctx context.Context, runID string, attempt models.Attempt) error
}

// finishTimeout bounds the final write of a run after its poll ended
const finishTimeout = 10 * time.Second

// Tracker submits analyses and polls their reports in the background, one
// goroutine per run. Every run ends in a terminal status, including on shutdown.
type Tracker struct {
	submitter Submitter
	poller    *poller.ReconcilingPoller
	runs      RunStore
	events    EventStore
	backend   string
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTracker creates a new tracker. backend selects how a submission handle
// is turned into a store location ("http" or "s3").
func NewTracker(
	sub Submitter,
	p *poller.ReconcilingPoller,
	runs RunStore,
	events EventStore,
	backend string,
	logger *zap.Logger,
) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		submitter: sub,
		poller:    p,
		runs:      runs,
		events:    events,
		backend:   backend,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Analyze submits repoURL and starts polling its reports.
// Submission failures are returned as is so callers can show them verbatim.
func (t *Tracker) Analyze(ctx context.Context, repoURL string) (*models.Run, error) {
	if err := t.ctx.Err(); err != nil {
		return nil, fmt.Errorf("tracker stopped: %w", err)
	}

	handle, err := t.submitter.Submit(ctx, repoURL)
	if err != nil {
		return nil, err
	}

	run := &models.Run{
		RepoURL:        repoURL,
		SourceLocation: handle.StoreLocation(t.backend),
		Status:         models.RunStatusPolling,
	}
	if err := t.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	t.logger.Info("tracking run",
		zap.String("run_id", run.ID),
		zap.String("repo", repoURL),
		zap.String("source", run.SourceLocation))

	t.wg.Add(1)
	go t.track(run.ID, run.SourceLocation)
	return run, nil
}

// track polls one run to completion and records the outcome
func (t *Tracker) track(runID, source string) {
	defer t.wg.Done()

	obs := &runObserver{runID: runID, runs: t.runs, events: t.events, logger: t.logger}
	result := t.poller.WithObservers(obs).Poll(t.ctx, source)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), finishTimeout)
	defer cancel()

	status := models.RunStatusFor(result.Status)
	if err := t.runs.FinishRun(ctx, runID, status, result.Session.AttemptsUsed, result.Snapshot, result.Message); err != nil {
		t.logger.Error("failed to finish run", zap.String("run_id", runID), zap.Error(err))
		return
	}
	t.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("status", string(status)),
		zap.Int("attempts", result.Session.AttemptsUsed))
}

// Wait blocks until every tracked run has finished
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Stop abandons in-flight polls and waits for their runs to be recorded
func (t *Tracker) Stop() {
	t.cancel()
	t.wg.Wait()
}

// runObserver writes each attempt of one run to the stores
type runObserver struct {
	runID  string
	runs   RunStore
	events EventStore
	logger *zap.Logger
}

func (o *runObserver) ObserveAttempt(ctx context.Context, session models.PollSession, attempt models.Attempt) {
	ctx = context.WithoutCancel(ctx)
	if err := o.events.CreateRunEvent(ctx, o.runID, attempt); err != nil {
		o.logger.Warn("failed to record attempt", zap.String("run_id", o.runID), zap.Error(err))
	}
	if session.State.Terminal() {
		return
	}
	if err := o.runs.UpdateAttempts(ctx, o.runID, session.AttemptsUsed); err != nil {
		o.logger.Warn("failed to update attempts", zap.String("run_id", o.runID), zap.Error(err))
	}
}

func (o *runObserver) ObserveResult(context.Context, models.Result) {}
