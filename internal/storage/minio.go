package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioStorage implements ObjectStorage against an S3-compatible MinIO
// endpoint, auto-creating the configured bucket at construction when it is
// missing. An upload returns a URL under the configured public URL when one
// is set, otherwise a 7-day presigned GET URL (long enough to outlive the
// request that produced it, short enough not to leak forever).
type minioStorage struct {
	client     *minio.Client
	bucketName string
	publicURL  string
}

const presignedURLTTL = 7 * 24 * time.Hour

func newMinIOStorage(cfg Config) (ObjectStorage, error) {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, &ConfigError{Field: "storage_config", Reason: "minio provider requires endpoint and bucket_name"}
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create bucket %s: %w", cfg.BucketName, err)
		}
	}

	return &minioStorage{client: client, bucketName: cfg.BucketName, publicURL: cfg.PublicURL}, nil
}

func (m *minioStorage) UploadBytes(ctx context.Context, ext string, data []byte) (string, error) {
	key := objectKey(ext)
	contentType := "application/octet-stream"
	if ext != "" {
		contentType = "image/" + ext
	}
	if _, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("storage: minio upload %s: %w", key, err)
	}
	return m.urlFor(ctx, key)
}

func (m *minioStorage) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("storage: minio open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("storage: minio stat %s: %w", path, err)
	}

	key := objectKey(ext(path))
	if _, err := m.client.PutObject(ctx, m.bucketName, key, f, info.Size(), minio.PutObjectOptions{}); err != nil {
		return "", fmt.Errorf("storage: minio upload %s: %w", key, err)
	}
	return m.urlFor(ctx, key)
}

func (m *minioStorage) urlFor(ctx context.Context, key string) (string, error) {
	if m.publicURL != "" {
		return m.publicURL + "/" + m.bucketName + "/" + key, nil
	}
	presigned, err := m.client.PresignedGetObject(ctx, m.bucketName, key, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("storage: minio presign %s: %w", key, err)
	}
	return presigned.String(), nil
}
