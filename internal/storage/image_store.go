package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ridwanfathin/invoice-extraction-service/internal/imageutil"
)

// StorageError represents a failure to persist an uploaded image
type StorageError struct {
	Op  string // Operation that caused the error
	Err error  // Original error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Err == nil {
		return "storage error: " + e.Op
	}
	return "storage error: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ImageStore persists uploaded invoice images and returns a retrievable reference
type ImageStore interface {
	// Save writes data under key and returns the image URL
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// NewImageKey generates a unique storage key for an upload. The extension is
// taken from the original filename when it has one, otherwise from the bytes.
func NewImageKey(filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !validExtension(ext) {
		ext = imageutil.ExtensionFor(imageutil.DetectImageType(data))
	}
	return uuid.NewString() + ext
}

func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// validateKey rejects keys that could escape the storage root
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
