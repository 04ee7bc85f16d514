package storage

import (
	"context"
	"strings"
)

// maxObjectBytes bounds how much of a report object is read
const maxObjectBytes = 16 << 20

// ObjectRequest identifies one read against a content store
type ObjectRequest struct {
	Base      string // Store base location: an HTTP(S) URL or an S3 bucket
	Key       string // Relative object key, e.g. reports/code_review_latest.json
	CacheBust int64  // Unix milliseconds; sent so intermediaries cannot serve a stale copy
}

// ContentStore reads report objects.
// Implementations classify failures by wrapping models.ErrTransientAbsence
// (object missing) or models.ErrStoreUnreachable (anything else).
type ContentStore interface {
	Get(ctx context.Context, req ObjectRequest) ([]byte, error)
}

// joinKey joins a base path and a key with exactly one slash
func joinKey(base, key string) string {
	base = strings.TrimRight(base, "/")
	key = strings.TrimLeft(key, "/")
	if base == "" {
		return key
	}
	return base + "/" + key
}
