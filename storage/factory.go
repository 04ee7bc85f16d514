package storage

import (
	"context"
	"fmt"

	"review-reconciler/providers/aws"

	"go.uber.org/zap"
)

// NewContentStore builds the store for a backend name: "http" or "s3"
func NewContentStore(ctx context.Context, backend, region string, logger *zap.Logger) (ContentStore, error) {
	switch backend {
	case "http", "":
		return NewHTTPStore(nil, logger), nil
	case "s3":
		client, err := aws.NewClient(ctx, region)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client.S3(), logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
