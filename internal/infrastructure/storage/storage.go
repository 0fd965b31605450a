package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
)

const (
	defaultContentType = "image/jpeg"
	bucketCheckTimeout = 5 * time.Second
)

// ErrDisabled is returned by Connect when object storage is turned off.
var ErrDisabled = errors.New("storage: disabled in configuration")

// SnapshotStore archives captured frames.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// MinioStore stores snapshots in a MinIO (or other S3 compatible) bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL *url.URL
	useSSL  bool
}

// Connect creates the MinIO client and makes sure the bucket exists.
func Connect(ctx context.Context, cfg config.MinIOConfig) (*MinioStore, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	if err := cli.MakeBucket(checkCtx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := cli.BucketExists(checkCtx, cfg.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	var base *url.URL
	if cfg.PublicBaseURL != "" {
		base, err = url.Parse(cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing public base url: %w", err)
		}
	}

	return &MinioStore{
		client:  cli,
		bucket:  cfg.Bucket,
		baseURL: base,
		useSSL:  cfg.UseSSL,
	}, nil
}

// SaveSnapshot uploads data under key and returns a URL for the object.
func (s *MinioStore) SaveSnapshot(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = defaultContentType
	}

	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return objectURL(s.baseURL, scheme, s.client.EndpointURL().Host, s.bucket, key), nil
}

// HealthCheck verifies the bucket is still reachable.
func (s *MinioStore) HealthCheck(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("storage health check failed: bucket %s missing", s.bucket)
	}
	return nil
}

// SnapshotKey builds the object key for a device frame taken at ts.
//
// Example: snapshots/cam-01/20260301T101500.123Z.jpg
func SnapshotKey(deviceID string, ts time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s.jpg", deviceID, ts.UTC().Format("20060102T150405.000Z"))
}

// objectURL prefers the public base URL; otherwise it points at the raw
// S3 endpoint path-style.
func objectURL(base *url.URL, scheme, host, bucket, key string) string {
	if base != nil {
		u := *base
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + key
		return u.String()
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, host, bucket, key)
}
