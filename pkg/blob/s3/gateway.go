// Package s3 implements blob.Gateway on Amazon S3 or any S3-compatible
// service. Each container is a bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/servr/pkg/blob"
)

// Config holds configuration for the S3 gateway.
type Config struct {
	// Region is the AWS region. Default: us-east-1.
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the SDK default chain (env, shared config, IMDS) is used.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// MaxRetries is the maximum number of attempts for transient errors.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// Gateway is an S3-backed blob.Gateway.
type Gateway struct {
	client  *s3.Client
	presign *s3.PresignClient
	region  string
	closed  bool
	mu      sync.RWMutex
}

// New creates a gateway around an existing client.
func New(client *s3.Client, region string) *Gateway {
	return &Gateway{
		client:  client,
		presign: s3.NewPresignClient(client),
		region:  region,
	}
}

// NewFromConfig builds the S3 client from config and wraps it.
func NewFromConfig(ctx context.Context, config Config) (*Gateway, error) {
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(config.MaxRetries))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.ForcePathStyle
	})

	return New(client, config.Region), nil
}

func (g *Gateway) checkOpen() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return blob.ErrClosed
	}
	return nil
}

// ContainerExists implements blob.Gateway.
func (g *Gateway) ContainerExists(ctx context.Context, container string) (bool, error) {
	if err := g.checkOpen(); err != nil {
		return false, err
	}

	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(container),
	})
	if err != nil {
		if isBucketNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head bucket: %w", err)
	}
	return true, nil
}

// CreateContainer implements blob.Gateway.
func (g *Gateway) CreateContainer(ctx context.Context, container string) error {
	if err := g.checkOpen(); err != nil {
		return err
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(container)}
	// us-east-1 rejects an explicit location constraint.
	if g.region != "" && g.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(g.region),
		}
	}

	_, err := g.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("s3 create bucket: %w", err)
	}
	return nil
}

// Put implements blob.Gateway.
func (g *Gateway) Put(ctx context.Context, container, key string, data io.Reader, size int64, contentType string) error {
	if err := g.checkOpen(); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(container),
		Key:           aws.String(key),
		Body:          data,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := g.client.PutObject(ctx, input); err != nil {
		if isBucketNotFound(err) {
			return blob.ErrContainerNotFound
		}
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// Delete implements blob.Gateway.
func (g *Gateway) Delete(ctx context.Context, container, key string) error {
	if err := g.checkOpen(); err != nil {
		return err
	}

	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		if isBucketNotFound(err) {
			return blob.ErrContainerNotFound
		}
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// SignGet implements blob.Gateway with a SigV4 presigned GetObject request.
func (g *Gateway) SignGet(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	if err := g.checkOpen(); err != nil {
		return "", err
	}

	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign get object: %w", err)
	}
	return req.URL, nil
}

// Healthcheck verifies credentials and connectivity with ListBuckets.
func (g *Gateway) Healthcheck(ctx context.Context) error {
	if err := g.checkOpen(); err != nil {
		return err
	}

	_, err := g.client.ListBuckets(ctx, &s3.ListBucketsInput{MaxBuckets: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

// Close marks the gateway as closed.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// isBucketNotFound reports whether err says the bucket does not exist.
// HeadBucket has no body, so the SDK only exposes the generic "NotFound"
// code for it; object operations return NoSuchBucket.
func isBucketNotFound(err error) bool {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NotFound":
			return true
		}
	}
	return false
}

var _ blob.Gateway = (*Gateway)(nil)
