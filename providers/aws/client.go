package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the AWS provider client
type Client struct {
	s3Client *s3.Client
	region   string
}

// NewClient creates a new AWS client from the default credential chain.
// An empty region falls back to whatever the environment or shared config names.
func NewClient(ctx context.Context, region string) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		s3Client: s3.NewFromConfig(cfg),
		region:   cfg.Region,
	}, nil
}

// S3 returns the S3 client
func (c *Client) S3() *s3.Client {
	return c.s3Client
}

// Region returns the resolved region
func (c *Client) Region() string {
	return c.region
}
