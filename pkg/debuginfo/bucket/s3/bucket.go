// Package s3 implements bucket.ObjectBucket backed by Amazon S3 (or any
// S3-compatible store), adapted from dittofs's pkg/content/store/s3 content
// store: the same retryable-error classification and exponential backoff,
// with structured logging on each Put retry (Get and Exists retry silently).
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/parca-dev/debuginfo-ingest/internal/logger"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/bucket"
)

// RetryConfig controls the backoff schedule used for transient S3 errors.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig mirrors the teacher's S3 content store defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Bucket is a bucket.ObjectBucket backed by S3.
type Bucket struct {
	client *s3.Client
	bucket string
	prefix string
	retry  RetryConfig
}

// New creates a Bucket using client to talk to the named S3 bucket. Every
// object key is written under prefix (e.g. "debuginfo/uploads/").
func New(client *s3.Client, bucketName, prefix string, retry RetryConfig) *Bucket {
	return &Bucket{client: client, bucket: bucketName, prefix: prefix, retry: retry}
}

var _ bucket.ObjectBucket = (*Bucket)(nil)

func (b *Bucket) objectKey(key string) string {
	return b.prefix + key
}

func (b *Bucket) calculateBackoff(attempt int) time.Duration {
	backoff := float64(b.retry.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= b.retry.BackoffMultiplier
	}
	if backoff > float64(b.retry.MaxBackoff) {
		backoff = float64(b.retry.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Put implements bucket.ObjectBucket. The AWS SDK requires a seekable or
// pre-sized body for PutObject retries to be safe, so the caller's reader
// is buffered into memory first. The coordinator's max upload size check
// applies only to the size declared at InitiateUpload; the bytes streamed
// into Put are not counted against it, so the buffer is not bounded by it.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("buffering upload body: %w", err)
	}

	objectKey := b.objectKey(key)
	var lastErr error

	for attempt := 0; attempt <= b.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := b.calculateBackoff(attempt - 1)
			logger.Debug("bucket put: retrying", "backoff", backoff, "attempt", attempt, "max_retries", b.retry.MaxRetries, "key", objectKey)

			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}
		}

		_, lastErr = b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(objectKey),
			Body:   newBytesReader(data),
		})

		if lastErr == nil {
			return int64(len(data)), nil
		}

		if !isRetryableError(lastErr) {
			break
		}

		logger.Debug("bucket put: transient error", "attempt", attempt+1, "max_retries", b.retry.MaxRetries+1, "key", objectKey, "error", lastErr)
	}

	return 0, fmt.Errorf("failed to put object after %d attempts: %w", b.retry.MaxRetries+1, lastErr)
}

// Get implements bucket.ObjectBucket.
func (b *Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectKey := b.objectKey(key)
	var result *s3.GetObjectOutput
	var lastErr error

	for attempt := 0; attempt <= b.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := b.calculateBackoff(attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, lastErr = b.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(objectKey),
		})

		if lastErr == nil {
			return result.Body, nil
		}

		if isNotFoundError(lastErr) {
			return nil, fmt.Errorf("object %s: %w", key, errObjectNotFound)
		}

		if !isRetryableError(lastErr) {
			break
		}
	}

	return nil, fmt.Errorf("failed to get object after %d attempts: %w", b.retry.MaxRetries+1, lastErr)
}

// Exists implements bucket.ObjectBucket.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	objectKey := b.objectKey(key)
	var lastErr error

	for attempt := 0; attempt <= b.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := b.calculateBackoff(attempt - 1)
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(backoff):
			}
		}

		_, lastErr = b.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(objectKey),
		})

		if lastErr == nil {
			return true, nil
		}

		if isNotFoundError(lastErr) {
			return false, nil
		}

		if !isRetryableError(lastErr) {
			break
		}
	}

	return false, fmt.Errorf("failed to check object existence after %d attempts: %w", b.retry.MaxRetries+1, lastErr)
}

// Delete implements bucket.ObjectBucket.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
