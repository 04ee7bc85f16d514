package poller

import (
	"context"
	"fmt"
	"time"

	"review-reconciler/core/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ArtifactSource fetches one artifact; it must fold every failure into the artifact state
type ArtifactSource interface {
	Fetch(ctx context.Context, baseLocation, key string) models.Artifact
}

// Observer is told about every attempt and every final result.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveAttempt(ctx context.Context, session models.PollSession, attempt models.Attempt)
	ObserveResult(ctx context.Context, result models.Result)
}

// SleepFunc suspends between attempts; it returns early with an error if ctx ends
type SleepFunc func(ctx context.Context, d time.Duration) error

// ReconcilingPoller fetches the review and debt artifacts, decides joint completion
// and merges them into a snapshot, retrying on a fixed interval up to a bound
type ReconcilingPoller struct {
	source            ArtifactSource
	reviewKey         string
	debtKey           string
	maxAttempts       int
	interval          time.Duration
	requireWellFormed bool
	sleep             SleepFunc
	now               func() time.Time
	observers         []Observer
	logger            *zap.Logger
}

// Option configures a ReconcilingPoller
type Option func(*ReconcilingPoller)

// WithMaxAttempts sets how many attempts Poll makes before timing out
func WithMaxAttempts(n int) Option {
	return func(p *ReconcilingPoller) { p.maxAttempts = n }
}

// WithInterval sets the fixed wait between incomplete attempts
func WithInterval(d time.Duration) Option {
	return func(p *ReconcilingPoller) { p.interval = d }
}

// WithSleep replaces the suspension between attempts, mainly for tests
func WithSleep(sleep SleepFunc) Option {
	return func(p *ReconcilingPoller) { p.sleep = sleep }
}

// WithClock overrides the clock used for session and snapshot timestamps
func WithClock(now func() time.Time) Option {
	return func(p *ReconcilingPoller) { p.now = now }
}

// WithObserver adds an attempt observer
func WithObserver(o Observer) Option {
	return func(p *ReconcilingPoller) { p.observers = append(p.observers, o) }
}

// WithRequireWellFormed makes a malformed artifact block completion instead of
// merging with defaulted fields
func WithRequireWellFormed(strict bool) Option {
	return func(p *ReconcilingPoller) { p.requireWellFormed = strict }
}

// WithKeys overrides the review and debt artifact keys
func WithKeys(reviewKey, debtKey string) Option {
	return func(p *ReconcilingPoller) {
		p.reviewKey = reviewKey
		p.debtKey = debtKey
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *ReconcilingPoller) { p.logger = logger }
}

// NewReconcilingPoller creates a new poller
func NewReconcilingPoller(source ArtifactSource, opts ...Option) *ReconcilingPoller {
	p := &ReconcilingPoller{
		source:      source,
		reviewKey:   models.ReviewArtifactKey,
		debtKey:     models.DebtArtifactKey,
		maxAttempts: models.DefaultMaxAttempts,
		interval:    models.DefaultPollInterval,
		sleep:       sleepContext,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithObservers returns a copy of the poller that also reports to the given observers
func (p *ReconcilingPoller) WithObservers(observers ...Observer) *ReconcilingPoller {
	clone := *p
	clone.observers = append(append([]Observer{}, p.observers...), observers...)
	return &clone
}

// RunOnce fetches both artifacts and merges them if they are jointly complete
func (p *ReconcilingPoller) RunOnce(ctx context.Context, baseLocation string) (*models.Snapshot, bool) {
	attempt := p.attempt(ctx, baseLocation, 1)
	return attempt.Snapshot, attempt.Complete
}

// LoadOnce performs a single attempt without waiting or retrying
func (p *ReconcilingPoller) LoadOnce(ctx context.Context, baseLocation string) models.Result {
	session := models.NewPollSession(baseLocation, 1, 0)
	session.StartedAt = p.now()
	session.State = models.SessionFetching

	attempt := p.attempt(ctx, baseLocation, 1)
	session, outcome := Advance(session, attempt)
	p.notifyAttempt(ctx, session, attempt)

	result := models.Result{Status: models.ResultIncomplete, Session: session}
	if outcome == models.OutcomeComplete {
		result.Status = models.ResultComplete
		result.Snapshot = attempt.Snapshot
	} else {
		result.Session.State = models.SessionIncomplete
	}
	p.notifyResult(ctx, result)
	return result
}

// Poll repeats attempts until both artifacts are complete or the attempts run out.
// It never returns an error; a timeout is reported through the result status.
func (p *ReconcilingPoller) Poll(ctx context.Context, baseLocation string) models.Result {
	session := models.NewPollSession(baseLocation, p.maxAttempts, p.interval)
	session.StartedAt = p.now()

	for {
		if ctx.Err() != nil {
			return p.finish(ctx, p.cancelled(session))
		}

		session.State = models.SessionFetching
		attempt := p.attempt(ctx, baseLocation, session.AttemptsUsed+1)

		var outcome models.Outcome
		session, outcome = Advance(session, attempt)
		p.notifyAttempt(ctx, session, attempt)

		switch outcome {
		case models.OutcomeComplete:
			p.logger.Info("reports complete",
				zap.String("source", baseLocation),
				zap.Int("attempts", session.AttemptsUsed))
			return p.finish(ctx, models.Result{
				Status:   models.ResultComplete,
				Snapshot: attempt.Snapshot,
				Session:  session,
			})
		case models.OutcomeTimedOut:
			p.logger.Warn("polling timed out",
				zap.String("source", baseLocation),
				zap.Int("attempts", session.AttemptsUsed))
			return p.finish(ctx, models.Result{
				Status:  models.ResultTimedOut,
				Session: session,
				Message: models.TimedOutMessage,
			})
		}

		if err := p.sleep(ctx, session.Interval); err != nil {
			return p.finish(ctx, p.cancelled(session))
		}
	}
}

func (p *ReconcilingPoller) cancelled(session models.PollSession) models.Result {
	p.logger.Info("polling abandoned",
		zap.String("source", session.SourceLocation),
		zap.Int("attempts", session.AttemptsUsed))
	return models.Result{
		Status:  models.ResultCancelled,
		Session: session,
		Message: "Polling cancelled.",
	}
}

func (p *ReconcilingPoller) finish(ctx context.Context, result models.Result) models.Result {
	p.notifyResult(ctx, result)
	return result
}

// attempt fetches both artifacts concurrently and joins before deciding completion
func (p *ReconcilingPoller) attempt(ctx context.Context, baseLocation string, number int) models.Attempt {
	var review, debt models.Artifact

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		review = p.fetch(gctx, baseLocation, p.reviewKey)
		return nil
	})
	g.Go(func() error {
		debt = p.fetch(gctx, baseLocation, p.debtKey)
		return nil
	})
	_ = g.Wait() // fetch never fails, state is carried in the artifacts

	attempt := models.Attempt{Number: number, Review: review, Debt: debt}
	if Mergeable(review, debt, p.requireWellFormed) {
		attempt.Complete = true
		attempt.Snapshot = Merge(review, debt, p.now())
	}
	if review.Err != nil && !review.Present() {
		attempt.Err = review.Err
	} else if debt.Err != nil && !debt.Present() {
		attempt.Err = debt.Err
	}

	p.logger.Debug("poll attempt",
		zap.Int("attempt", number),
		zap.String("review", string(review.State)),
		zap.String("debt", string(debt.State)),
		zap.Bool("complete", attempt.Complete))
	return attempt
}

// fetch shields the attempt from a panicking source
func (p *ReconcilingPoller) fetch(ctx context.Context, baseLocation, key string) (artifact models.Artifact) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("artifact fetch panicked", zap.String("key", key), zap.Any("panic", r))
			artifact = models.Artifact{
				Key:       key,
				State:     models.ArtifactAbsent,
				Err:       fmt.Errorf("%w: fetch panicked: %v", models.ErrStoreUnreachable, r),
				FetchedAt: p.now(),
			}
		}
	}()
	return p.source.Fetch(ctx, baseLocation, key)
}

func (p *ReconcilingPoller) notifyAttempt(ctx context.Context, session models.PollSession, attempt models.Attempt) {
	for _, o := range p.observers {
		o.ObserveAttempt(ctx, session, attempt)
	}
}

func (p *ReconcilingPoller) notifyResult(ctx context.Context, result models.Result) {
	for _, o := range p.observers {
		o.ObserveResult(ctx, result)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
