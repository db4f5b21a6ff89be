package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// cosStorage implements ObjectStorage against a Tencent COS-compatible
// bucket endpoint, reached over the same resty foundation the rest of the
// collaborator clients use. Unlike minio, COS's public-read bucket model
// means the returned URL is just the canonical object URL, not a presigned
// one.
type cosStorage struct {
	client    *resty.Client
	bucket    string
	region    string
	publicURL string
}

func newCOSStorage(cfg Config) (ObjectStorage, error) {
	if cfg.BucketName == "" || cfg.Region == "" {
		return nil, &ConfigError{Field: "storage_config", Reason: "cos provider requires bucket_name and region"}
	}
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Authorization", cfg.SecretAccessKey)
	return &cosStorage{client: client, bucket: cfg.BucketName, region: cfg.Region, publicURL: cfg.PublicURL}, nil
}

func (c *cosStorage) baseURL() string {
	if c.publicURL != "" {
		return c.publicURL
	}
	return fmt.Sprintf("https://%s.cos.%s.myqcloud.com", c.bucket, c.region)
}

func (c *cosStorage) put(ctx context.Context, key string, data []byte) (string, error) {
	url := c.baseURL() + "/" + key
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(data).
		Put(url)
	if err != nil {
		return "", fmt.Errorf("storage: cos put %s: %w", key, err)
	}
	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("storage: cos put %s: status %d", key, resp.StatusCode())
	}
	return url, nil
}

func (c *cosStorage) UploadBytes(ctx context.Context, extension string, data []byte) (string, error) {
	return c.put(ctx, objectKey(extension), data)
}

func (c *cosStorage) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("storage: cos read %s: %w", path, err)
	}
	return c.put(ctx, objectKey(ext(path)), data)
}
