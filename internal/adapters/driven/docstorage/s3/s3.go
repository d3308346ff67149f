// Package s3 provides a document storage adapter reading PDFs from an
// S3 bucket (or any S3-compatible endpoint).
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/logger"
)

// Ensure Storage implements the interface.
var _ driven.DocumentStorage = (*Storage)(nil)

// DefaultExtension filters listings to PDF documents.
const DefaultExtension = ".pdf"

// api is the subset of the S3 client the adapter uses.
type api interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds configuration for the S3 document storage.
type Config struct {
	// Bucket is the bucket name (required).
	Bucket string

	// Prefix narrows listings to one key prefix, e.g. "documents/".
	Prefix string

	// Region is the AWS region. Empty falls back to the SDK's default
	// resolution chain.
	Region string

	// Endpoint overrides the S3 endpoint for S3-compatible stores
	// (MinIO, localstack).
	Endpoint string

	// Extension filters listed keys (default: .pdf).
	Extension string
}

// Storage lists and fetches documents from one bucket prefix.
type Storage struct {
	client    api
	bucket    string
	prefix    string
	extension string
}

// New creates an S3 storage using the SDK's default credential chain.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newWithClient(client, cfg), nil
}

func newWithClient(client api, cfg Config) *Storage {
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	return &Storage{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		extension: cfg.Extension,
	}
}

// List returns the keys of all matching documents under the prefix,
// in the order the bucket returns them.
func (s *Storage) List(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list bucket %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(strings.ToLower(key), s.extension) {
				keys = append(keys, key)
			}
		}
	}

	logger.Debug("Listed %d documents in s3://%s/%s", len(keys), s.bucket, s.prefix)
	return keys, nil
}

// Fetch downloads one document's raw bytes.
func (s *Storage) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: read object %s: %w", key, err)
	}
	return data, nil
}

// Ping validates the bucket is reachable with a one-key listing.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("s3: ping bucket %s: %w", s.bucket, err)
	}
	return nil
}
