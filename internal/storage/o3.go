package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/heartrisk/heartrisk/internal/config"
)

// URIScheme prefixes artifact locations held in object storage.
const URIScheme = "s3://"

var ErrObjectNotFound = errors.New("object not found")

type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// O3Client downloads objects from Akave O3 or any other S3-compatible API.
type O3Client struct {
	client objectAPI
	bucket string
}

// NewO3Client builds an S3-compatible client for the given O3 config.
// Returns nil if cfg is nil or the endpoint is empty.
func NewO3Client(cfg *config.O3Config) (*O3Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, nil
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return &O3Client{client: client, bucket: cfg.Bucket}, nil
}

// GetObject downloads an object. An empty bucket falls back to the
// configured default bucket.
func (c *O3Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("o3 client not configured")
	}
	if bucket == "" {
		bucket = c.bucket
	}
	if bucket == "" {
		return nil, fmt.Errorf("no bucket for key %q", key)
	}
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s%s/%s: %w", URIScheme, bucket, key, ErrObjectNotFound)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}

// IsObjectURI reports whether location names an object rather than a file.
func IsObjectURI(location string) bool {
	return strings.HasPrefix(location, URIScheme)
}

// ParseObjectURI splits s3://bucket/key. The bucket may be empty
// (s3:///key) to use the client's default bucket.
func ParseObjectURI(location string) (bucket, key string, err error) {
	if !IsObjectURI(location) {
		return "", "", fmt.Errorf("not an object uri: %q", location)
	}
	rest := strings.TrimPrefix(location, URIScheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || key == "" {
		return "", "", fmt.Errorf("object uri %q has no key", location)
	}
	return bucket, key, nil
}
