package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"review-reconciler/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.uber.org/zap"
)

// S3GetObjectAPI is the subset of the S3 client used by S3Store
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads report objects with the S3 API
type S3Store struct {
	client S3GetObjectAPI
	logger *zap.Logger
}

// NewS3Store creates a new S3 content store
func NewS3Store(client S3GetObjectAPI, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{client: client, logger: logger}
}

// ParseS3Location splits a base location into bucket and key prefix.
// Accepted forms: "bucket", "bucket/prefix", "s3://bucket/prefix".
func ParseS3Location(base string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(base, "s3://")
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return "", "", fmt.Errorf("empty S3 location %q", base)
	}
	bucket, prefix, _ = strings.Cut(trimmed, "/")
	return bucket, prefix, nil
}

// Get fetches one object
func (s *S3Store) Get(ctx context.Context, req ObjectRequest) ([]byte, error) {
	bucket, prefix, err := ParseS3Location(req.Base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnreachable, err)
	}
	key := joinKey(prefix, req.Key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket:               aws.String(bucket),
		Key:                  aws.String(key),
		ResponseCacheControl: aws.String("no-cache"),
	}, withCacheBust(req.CacheBust))
	if err != nil {
		if isMissingObject(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s: %v", models.ErrTransientAbsence, bucket, key, err)
		}
		return nil, fmt.Errorf("%w: s3://%s/%s: %v", models.ErrStoreUnreachable, bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read s3://%s/%s: %v", models.ErrStoreUnreachable, bucket, key, err)
	}

	s.logger.Debug("object fetched",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)))
	return body, nil
}

// isMissingObject reports whether an S3 error means the key does not exist (yet)
func isMissingObject(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == http.StatusNotFound || code == http.StatusForbidden
	}
	return false
}

// withCacheBust adds the cache-busting query parameter to the outgoing request
func withCacheBust(ts int64) func(*s3.Options) {
	return func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
			return stack.Build.Add(middleware.BuildMiddlewareFunc("ReportCacheBust",
				func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (
					middleware.BuildOutput, middleware.Metadata, error,
				) {
					if req, ok := in.Request.(*smithyhttp.Request); ok {
						q := req.URL.Query()
						q.Set(CacheBustParam, strconv.FormatInt(ts, 10))
						req.URL.RawQuery = q.Encode()
					}
					return next.HandleBuild(ctx, in)
				}), middleware.After)
		})
	}
}
