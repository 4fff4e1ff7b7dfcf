// Package storage holds media objects (voicemail audio, screenshots) in S3
// and issues presigned URLs so clients upload directly without proxying
// bytes through the API.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	signerv4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/scamshield/scamshield/pkg/logging"
)

// S3API is the subset of the S3 client used by MediaStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// PresignAPI is the subset of the S3 presign client used by MediaStore.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*signerv4.PresignedHTTPRequest, error)
}

// ErrObjectNotFound indicates the requested media object does not exist yet,
// typically because the client never completed its presigned upload.
var ErrObjectNotFound = errors.New("storage: object not found")

// MediaStore wraps an S3 bucket holding uploaded media.
type MediaStore struct {
	bucket    string
	client    S3API
	presigner PresignAPI
	lifetime  time.Duration
	logger    *logging.Logger
}

// NewMediaStore builds a store over the given bucket. lifetime bounds how
// long presigned URLs stay valid.
func NewMediaStore(client S3API, presigner PresignAPI, bucket string, lifetime time.Duration, logger *logging.Logger) *MediaStore {
	if lifetime <= 0 {
		lifetime = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MediaStore{
		bucket:    bucket,
		client:    client,
		presigner: presigner,
		lifetime:  lifetime,
		logger:    logger,
	}
}

// Enabled reports whether media storage is configured.
func (s *MediaStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.client != nil
}

// PresignUpload returns a time-limited URL the client PUTs the media to.
// The URL is bound to the given content type so the upload cannot smuggle
// a different one.
func (s *MediaStore) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	if !s.Enabled() || s.presigner == nil {
		return "", errors.New("storage: media store not configured")
	}
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.lifetime
	})
	if err != nil {
		return "", fmt.Errorf("storage: presign upload %s: %w", key, err)
	}
	return req.URL, nil
}

// Put writes an object directly. Used by tests and server-side ingestion.
func (s *MediaStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if !s.Enabled() {
		return errors.New("storage: media store not configured")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 put %s: %w", key, err)
	}
	return nil
}

// Size returns the stored object's length in bytes, or ErrObjectNotFound.
func (s *MediaStore) Size(ctx context.Context, key string) (int64, error) {
	if !s.Enabled() {
		return 0, errors.New("storage: media store not configured")
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("storage: s3 head %s: %w", key, err)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

// Get fetches an object's bytes and content type.
func (s *MediaStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	if !s.Enabled() {
		return nil, "", errors.New("storage: media store not configured")
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("storage: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("storage: read %s: %w", key, err)
	}
	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return data, contentType, nil
}

// isNotFoundErr checks for S3's missing-object errors. Simple string check
// since errors.As with S3 types can be tricky.
func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound") || strings.Contains(msg, "404")
}
