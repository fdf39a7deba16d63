package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for S3Sink.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint for MinIO or LocalStack
	Prefix   string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives results under <prefix>/output/result/<source name>.
type S3Sink struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Sink creates an S3 sink using the default AWS credential chain.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", common.ErrMissingConfig)
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Sink(client, cfg), nil
}

func newS3Sink(client objectPutter, cfg S3Config) *S3Sink {
	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// Key returns the object key for a source file.
func (s *S3Sink) Key(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = Filename
	}
	return path.Join(strings.Trim(s.prefix, "/"), "output", "result", name)
}

// Put implements Sink.
func (s *S3Sink) Put(ctx context.Context, name string, body []byte) (string, error) {
	key := s.Key(name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return "", classify(fmt.Errorf("s3 put failed for %s: %w", key, err))
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// classify marks rejected requests (4xx other than 429) as permanent. Network
// failures and server errors stay retryable.
func classify(err error) error {
	retryable := true
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		code := status.HTTPStatusCode()
		retryable = code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}
	return &common.RetryableError{Err: err, Retryable: retryable}
}
