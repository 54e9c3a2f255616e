package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNewImageKey(t *testing.T) {
	key := NewImageKey("scan.PNG", pngHeader)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Len(t, key, 36+len(".png"))

	// extension sniffed from the bytes when the filename has none
	assert.True(t, strings.HasSuffix(NewImageKey("upload", pngHeader), ".png"))

	// unsafe extensions are discarded
	assert.True(t, strings.HasSuffix(NewImageKey("x.p$g", pngHeader), ".png"))

	// keys never collide, even for identical uploads
	assert.NotEqual(t, NewImageKey("a.png", pngHeader), NewImageKey("a.png", pngHeader))
}

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static")
	store, err := NewLocalStore(dir, "/static/")
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	url, err := store.Save(context.Background(), "a.png", pngHeader, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/static/a.png", url)

	written, err := os.ReadFile(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, written)
}

func TestLocalStore_RejectsUnsafeKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/static")
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape.png", `dir\file.png`} {
		_, err := store.Save(context.Background(), key, pngHeader, "image/png")

		var storageErr *StorageError
		require.True(t, errors.As(err, &storageErr), "key %q", key)
		assert.Equal(t, "validate_key", storageErr.Op)
	}
}

func TestLocalStore_ConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/static")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Save(context.Background(), NewImageKey("same.png", pngHeader), pngHeader, "image/png")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestS3Uploader_Save(t *testing.T) {
	var (
		gotPath        string
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader, err := NewS3Uploader(&S3Config{
		Endpoint:        server.URL,
		AccessKeyID:     "key",
		AccessKeySecret: "secret",
		Bucket:          "invoices",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	url, err := uploader.Save(context.Background(), "a.png", pngHeader, "image/png")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/invoices/a.png", url)
	assert.Equal(t, "/invoices/a.png", gotPath)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, pngHeader, gotBody)
}

func TestS3Uploader_SaveFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	uploader, err := NewS3Uploader(&S3Config{
		Endpoint:        server.URL,
		AccessKeyID:     "key",
		AccessKeySecret: "secret",
		Bucket:          "invoices",
	})
	require.NoError(t, err)

	_, err = uploader.Save(context.Background(), "a.png", pngHeader, "image/png")

	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "upload_to_s3", storageErr.Op)
}

func TestS3Uploader_PublicURL(t *testing.T) {
	uploader, err := NewS3Uploader(&S3Config{
		Endpoint:        "https://project.supabase.co/storage/v1/s3",
		AccessKeyID:     "key",
		AccessKeySecret: "secret",
		Bucket:          "invoices",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/invoices/a.png", uploader.PublicURL("a.png"))
}

func TestNewS3Uploader_IncompleteConfig(t *testing.T) {
	_, err := NewS3Uploader(&S3Config{Endpoint: "http://localhost"})
	assert.Error(t, err)

	_, err = NewS3Uploader(&S3Config{Endpoint: "http://localhost", AccessKeyID: "k", AccessKeySecret: "s"})
	assert.Error(t, err)
}
