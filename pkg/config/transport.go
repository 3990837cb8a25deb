package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yonasBSD/conserve/pkg/transport"
	"github.com/yonasBSD/conserve/pkg/transport/local"
	transports3 "github.com/yonasBSD/conserve/pkg/transport/s3"
)

// NewArchiveTransport builds the transport.Transport cfg.Archive.Path
// describes: a local directory, or an s3://bucket/prefix object store.
// Credential resolution for the s3:// case defers to the AWS SDK's default
// chain (environment, shared config, instance role) unless cfg.S3 supplies
// static keys, matching how the SDK is meant to be driven rather than
// reimplementing its auth flows.
func NewArchiveTransport(ctx context.Context, cfg *Config) (transport.Transport, error) {
	path := cfg.Archive.Path
	if !strings.HasPrefix(path, "s3://") {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("config: creating archive directory %q: %w", path, err)
		}
		return local.New(path), nil
	}

	bucket, prefix := splitS3URL(path)
	s3cfg := cfg.S3
	if s3cfg.Bucket == "" {
		s3cfg.Bucket = bucket
	}
	if s3cfg.Prefix == "" {
		s3cfg.Prefix = prefix
	}

	client, err := newS3Client(ctx, s3cfg)
	if err != nil {
		return nil, fmt.Errorf("config: building S3 client: %w", err)
	}

	return transports3.New(client, transports3.Config{
		Bucket: s3cfg.Bucket,
		Prefix: s3cfg.Prefix,
	}), nil
}

// splitS3URL splits "s3://bucket/prefix" into its bucket and prefix parts.
func splitS3URL(url string) (bucket, prefix string) {
	rest := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// newS3Client builds an *s3.Client from cfg, using static credentials when
// both key fields are set and otherwise the SDK's default credential chain.
func newS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}
