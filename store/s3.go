package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3Adapter].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Adapter stores each value as one object in a bucket. Keys are mapped
// to object keys under an optional prefix.
type S3Adapter struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Adapter creates an adapter over a pre-configured client
// (credentials, region and endpoint are the caller's concern).
func NewS3Adapter(client S3Client, bucket, prefix string) *S3Adapter {
	return &S3Adapter{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Adapter) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Adapter) storeKey(objectKey string) string {
	if s.prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, s.prefix+"/")
}

// Get downloads the object stored under key.
func (s *S3Adapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: s3 get %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("store: s3 read %q: %w", key, err)
	}
	return data, true, nil
}

// Set uploads value under key.
func (s *S3Adapter) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("store: s3 put %q: %w", key, err)
	}
	return nil
}

// Delete removes the object stored under key.
func (s *S3Adapter) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("store: s3 delete %q: %w", key, err)
	}
	return nil
}

// Keys lists every key with the given prefix, following continuation tokens.
func (s *S3Adapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	}
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("store: s3 list %q: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, s.storeKey(aws.ToString(obj.Key)))
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	slices.Sort(keys)
	return keys, nil
}

// isS3NotFound reports whether err indicates the S3 object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ Adapter = (*S3Adapter)(nil)
