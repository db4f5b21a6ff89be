package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// localStorage writes uploads under a configured local directory; the
// "URL" an upload returns is the path of the written file, the configured
// directory joined with the object key (relative when that directory is
// relative), mirroring
// environments (tests, offline demos) that have no object-store endpoint
// configured.
type localStorage struct {
	dir string
}

func newLocalStorage(cfg Config) (ObjectStorage, error) {
	dir := cfg.LocalDir
	if dir == "" {
		return nil, &ConfigError{Field: "storage_config.local_dir", Reason: "required for the local provider"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create local dir %s: %w", dir, err)
	}
	return &localStorage{dir: dir}, nil
}

func (l *localStorage) UploadBytes(_ context.Context, ext string, data []byte) (string, error) {
	path := filepath.Join(l.dir, objectKey(ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: local write %s: %w", path, err)
	}
	return path, nil
}

func (l *localStorage) UploadFile(_ context.Context, srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("storage: local open %s: %w", srcPath, err)
	}
	defer src.Close()

	dstPath := filepath.Join(l.dir, objectKey(ext(srcPath)))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("storage: local create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("storage: local copy to %s: %w", dstPath, err)
	}
	return dstPath, nil
}

func ext(path string) string {
	e := filepath.Ext(path)
	if len(e) > 0 {
		return e[1:]
	}
	return ""
}
