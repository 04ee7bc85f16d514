package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"review-reconciler/core/models"

	"go.uber.org/zap"
)

// CacheBustParam is the query parameter carrying the cache-busting timestamp
const CacheBustParam = "t"

// HTTPStore reads report objects over plain HTTP GETs, e.g. from a public S3 website endpoint
type HTTPStore struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPStore creates a new HTTP content store
func NewHTTPStore(client *http.Client, logger *zap.Logger) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPStore{client: client, logger: logger}
}

// ObjectURL builds the URL for a request, including the cache-busting parameter
func ObjectURL(req ObjectRequest) (string, error) {
	u, err := url.Parse(joinKey(req.Base, req.Key))
	if err != nil {
		return "", fmt.Errorf("invalid store location %q: %w", req.Base, err)
	}
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(req.CacheBust, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Get fetches one object
func (s *HTTPStore) Get(ctx context.Context, req ObjectRequest) ([]byte, error) {
	objectURL, err := ObjectURL(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnreachable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnreachable, err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		// S3 answers 403 for missing keys when the caller may not list the bucket
		return nil, fmt.Errorf("%w: %s returned %d", models.ErrTransientAbsence, req.Key, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s returned %d", models.ErrStoreUnreachable, req.Key, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", models.ErrStoreUnreachable, req.Key, err)
	}

	s.logger.Debug("object fetched",
		zap.String("key", req.Key),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))
	return body, nil
}
