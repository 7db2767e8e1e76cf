package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrObjectNotFound is returned when the bucket has no such key
var ErrObjectNotFound = errors.New("object not found")

type S3Client interface {
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ObjectAPI is the subset of the S3 SDK client used here
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the S3 client
type S3Options struct {
	Endpoint     string `json:"endpoint"`
	UsePathStyle bool   `json:"use_path_style"`
}

type s3Client struct {
	api ObjectAPI
}

// NewS3Client builds an S3 client from an AWS config. A non-empty Endpoint
// targets an S3 compatible store such as MinIO.
func NewS3Client(cfg aws.Config, opts S3Options) S3Client {
	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &s3Client{api: api}
}

// NewS3ClientWithAPI wraps an existing object API
func NewS3ClientWithAPI(api ObjectAPI) S3Client {
	return &s3Client{api: api}
}

func (c *s3Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// ParseS3URI splits "s3://bucket/key" into bucket and key
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(uri), "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
