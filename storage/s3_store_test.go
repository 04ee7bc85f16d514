package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"review-reconciler/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bodies map[string]string
	err    error
	inputs []*s3.GetObjectInput
	opts   int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.inputs = append(f.inputs, in)
	f.opts += len(optFns)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

type statusErr int

func (e statusErr) Error() string       { return "http error" }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestParseS3Location(t *testing.T) {
	tests := []struct {
		in, bucket, prefix string
		wantErr            bool
	}{
		{in: "reports-bucket", bucket: "reports-bucket"},
		{in: "s3://reports-bucket/team-a/", bucket: "reports-bucket", prefix: "team-a"},
		{in: "reports-bucket/a/b", bucket: "reports-bucket", prefix: "a/b"},
		{in: "s3://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, prefix, err := ParseS3Location(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestS3Store_Get(t *testing.T) {
	fake := &fakeS3{bodies: map[string]string{
		"reports-bucket/team-a/reports/code_review_latest.json": `{"status":"processing"}`,
	}}
	store := NewS3Store(fake, nil)

	body, err := store.Get(context.Background(), ObjectRequest{
		Base:      "s3://reports-bucket/team-a",
		Key:       models.ReviewArtifactKey,
		CacheBust: 7,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"processing"}`, string(body))

	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "no-cache", aws.ToString(fake.inputs[0].ResponseCacheControl))
	assert.Equal(t, 1, fake.opts)

	_, err = store.Get(context.Background(), ObjectRequest{Base: "reports-bucket", Key: models.DebtArtifactKey})
	assert.ErrorIs(t, err, models.ErrTransientAbsence)
}

func TestS3Store_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found status", err: statusErr(404), want: models.ErrTransientAbsence},
		{name: "forbidden status", err: statusErr(403), want: models.ErrTransientAbsence},
		{name: "server error", err: statusErr(503), want: models.ErrStoreUnreachable},
		{name: "transport", err: errors.New("dial tcp: connection refused"), want: models.ErrStoreUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewS3Store(&fakeS3{err: tt.err}, nil)
			_, err := store.Get(context.Background(), ObjectRequest{Base: "bucket", Key: models.ReviewArtifactKey})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWithCacheBust_RegistersMiddleware(t *testing.T) {
	var opts s3.Options
	withCacheBust(99)(&opts)
	assert.Len(t, opts.APIOptions, 1)
}
