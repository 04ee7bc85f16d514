package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"review-reconciler/core/models"
	"review-reconciler/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	body []byte
	err  error
	reqs []storage.ObjectRequest
}

func (s *stubStore) Get(_ context.Context, req storage.ObjectRequest) ([]byte, error) {
	s.reqs = append(s.reqs, req)
	return s.body, s.err
}

func TestFetch_States(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		want    models.ArtifactState
		wantErr error
	}{
		{name: "complete", body: `{"score": 77, "reviews": []}`, want: models.ArtifactComplete},
		{name: "processing wins over other fields", body: `{"status": "processing", "score": 10}`, want: models.ArtifactProcessing},
		{name: "other status is complete", body: `{"status": "done"}`, want: models.ArtifactComplete},
		{name: "not json", body: `<Error>AccessDenied</Error>`, want: models.ArtifactMalformed, wantErr: models.ErrMalformedArtifact},
		{name: "truncated json", body: `{"score": 7`, want: models.ArtifactMalformed, wantErr: models.ErrMalformedArtifact},
		{name: "json array", body: `[1, 2]`, want: models.ArtifactMalformed, wantErr: models.ErrMalformedArtifact},
		{name: "missing object", err: fmt.Errorf("%w: 404", models.ErrTransientAbsence), want: models.ArtifactAbsent, wantErr: models.ErrTransientAbsence},
		{name: "unclassified failure", err: errors.New("boom"), want: models.ArtifactAbsent, wantErr: models.ErrStoreUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{body: []byte(tt.body), err: tt.err}
			f := NewArtifactFetcher(store)

			got := f.Fetch(context.Background(), "https://bucket", models.ReviewArtifactKey)

			assert.Equal(t, tt.want, got.State)
			assert.Equal(t, models.ReviewArtifactKey, got.Key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, got.Err, tt.wantErr)
			} else {
				assert.NoError(t, got.Err)
			}
			if tt.want == models.ArtifactComplete {
				assert.NotNil(t, got.Payload)
			} else {
				assert.Nil(t, got.Payload)
			}
		})
	}
}

func TestFetch_CacheBustsEveryCall(t *testing.T) {
	store := &stubStore{body: []byte(`{}`)}
	clock := time.UnixMilli(1_700_000_000_000)
	f := NewArtifactFetcher(store, WithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}))

	f.Fetch(context.Background(), "https://bucket", models.DebtArtifactKey)
	f.Fetch(context.Background(), "https://bucket", models.DebtArtifactKey)

	require.Len(t, store.reqs, 2)
	assert.Equal(t, "https://bucket", store.reqs[0].Base)
	assert.Equal(t, models.DebtArtifactKey, store.reqs[0].Key)
	assert.NotZero(t, store.reqs[0].CacheBust)
	assert.NotEqual(t, store.reqs[0].CacheBust, store.reqs[1].CacheBust)
}
