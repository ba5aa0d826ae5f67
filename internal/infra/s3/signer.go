package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const DefaultSignedURLTTL = 5 * time.Minute

var ErrEmptyKey = errors.New("object key is empty")

// PhotoSigner hands out short-lived GET URLs for profile photos. It never writes.
type PhotoSigner struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

func NewPhotoSigner(client *minio.Client, bucket string, ttl time.Duration) *PhotoSigner {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &PhotoSigner{
		client: client,
		bucket: strings.TrimSpace(bucket),
		ttl:    ttl,
	}
}

func (s *PhotoSigner) PresignGet(ctx context.Context, key string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}

	return presigned.String(), nil
}

// Check reports whether the photo bucket is reachable.
func (s *PhotoSigner) Check(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check s3 bucket %q: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("s3 bucket %q does not exist", s.bucket)
	}
	return nil
}
