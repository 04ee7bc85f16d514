package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"review-reconciler/core/models"
	"review-reconciler/storage"

	"go.uber.org/zap"
)

// ArtifactFetcher fetches single report artifacts from a content store.
// Fetch never returns an error: failures are folded into the artifact state.
type ArtifactFetcher struct {
	store  storage.ContentStore
	now    func() time.Time
	logger *zap.Logger
}

// Option configures an ArtifactFetcher
type Option func(*ArtifactFetcher)

// WithClock overrides the clock used for cache-busting and timestamps
func WithClock(now func() time.Time) Option {
	return func(f *ArtifactFetcher) { f.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *ArtifactFetcher) { f.logger = logger }
}

// NewArtifactFetcher creates a new artifact fetcher
func NewArtifactFetcher(store storage.ContentStore, opts ...Option) *ArtifactFetcher {
	f := &ArtifactFetcher{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the artifact stored under key at baseLocation
func (f *ArtifactFetcher) Fetch(ctx context.Context, baseLocation, key string) models.Artifact {
	started := f.now()
	artifact := models.Artifact{Key: key, FetchedAt: started}

	body, err := f.store.Get(ctx, storage.ObjectRequest{
		Base:      baseLocation,
		Key:       key,
		CacheBust: started.UnixMilli(),
	})
	if err != nil {
		artifact.State = models.ArtifactAbsent
		artifact.Err = classify(err)
		f.log(artifact, started)
		return artifact
	}

	payload, err := parsePayload(body)
	if err != nil {
		artifact.State = models.ArtifactMalformed
		artifact.Err = err
		f.log(artifact, started)
		return artifact
	}

	if status, _ := payload["status"].(string); status == models.StatusProcessing {
		artifact.State = models.ArtifactProcessing
	} else {
		artifact.State = models.ArtifactComplete
		artifact.Payload = payload
	}

	f.log(artifact, started)
	return artifact
}

func (f *ArtifactFetcher) log(a models.Artifact, started time.Time) {
	fields := []zap.Field{
		zap.String("key", a.Key),
		zap.String("state", string(a.State)),
		zap.Duration("latency", f.now().Sub(started)),
	}
	if a.Err != nil {
		fields = append(fields, zap.Error(a.Err))
	}
	f.logger.Debug("artifact fetched", fields...)
}

// parsePayload decodes a report body; anything but a JSON object is malformed
func parsePayload(body []byte) (map[string]interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedArtifact, err)
	}
	payload, ok := doc.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", models.ErrMalformedArtifact, doc)
	}
	return payload, nil
}

// classify makes sure every retrieval failure carries one of the absence classes
func classify(err error) error {
	if errors.Is(err, models.ErrTransientAbsence) || errors.Is(err, models.ErrStoreUnreachable) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrStoreUnreachable, err)
}
