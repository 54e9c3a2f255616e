package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images to a directory that is served as static files
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates the directory if needed. Saved images are reachable
// at urlPrefix/<key>.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create_dir", Err: err}
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

// Dir returns the directory images are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the image to disk. An existing file with the same key is overwritten.
func (s *LocalStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &StorageError{Op: "save", Err: err}
	}
	if err := validateKey(key); err != nil {
		return "", &StorageError{Op: "validate_key", Err: err}
	}

	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return "", &StorageError{Op: "write_file", Err: fmt.Errorf("failed to write image: %w", err)}
	}

	return s.urlPrefix + "/" + key, nil
}
