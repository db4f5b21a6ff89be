// Package storage provides the object-store collaborator the Markdown
// image lifter and the Image/PDF/Word parsers upload through: a narrow
// UploadBytes/UploadFile contract with four selectable providers (minio,
// cos, local, base64).
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ObjectStorage is the collaborator contract parsers upload image and
// extracted-document bytes through. The returned URL is opaque to callers:
// it may be a presigned/public object-store URL, a local file path, or (for
// the base64 provider) a data: URL embedding the payload directly.
type ObjectStorage interface {
	UploadBytes(ctx context.Context, ext string, data []byte) (url string, err error)
	UploadFile(ctx context.Context, path string) (url string, err error)
}

// Provider names the supported object-store backends, matching
// read_config.storage_config.provider.
type Provider string

const (
	ProviderCOS    Provider = "cos"
	ProviderMinIO  Provider = "minio"
	ProviderLocal  Provider = "local"
	ProviderBase64 Provider = "base64"
)

// Config selects and parameterizes one provider. Only the fields relevant
// to the selected Provider need be populated; the rest are ignored.
type Config struct {
	Provider Provider

	// minio / cos
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	Region          string  // cos
	PublicURL       string  // optional override for the public-facing base URL

	// local
	LocalDir string
}

// New constructs the ObjectStorage implementation selected by cfg.Provider.
// An unrecognized provider is a ConfigError, surfaced to the caller at
// construction rather than failing individual uploads later.
func New(cfg Config) (ObjectStorage, error) {
	switch cfg.Provider {
	case ProviderMinIO:
		return newMinIOStorage(cfg)
	case ProviderCOS:
		return newCOSStorage(cfg)
	case ProviderLocal:
		return newLocalStorage(cfg)
	case ProviderBase64, "":
		return base64Storage{}, nil
	default:
		return nil, &ConfigError{Field: "storage_config.provider", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}

// ConfigError is returned for configuration rejected at construction time
// rather than at call time, matching the taxonomy's ConfigError category.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("storage: invalid config for %s: %s", e.Field, e.Reason)
}

func objectKey(ext string) string {
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

// base64Storage never leaves the process: it returns a data: URL embedding
// the payload, so it needs no network access. UploadBytes never fails;
// UploadFile fails only when the file cannot be read.
type base64Storage struct{}

func (base64Storage) UploadBytes(_ context.Context, ext string, data []byte) (string, error) {
	mime := "application/octet-stream"
	if ext != "" {
		mime = "image/" + ext
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}

func (b base64Storage) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("storage: base64 provider read %s: %w", path, err)
	}
	ext := filepath.Ext(path)
	if len(ext) > 0 {
		ext = ext[1:]
	}
	return b.UploadBytes(ctx, ext, data)
}
