package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoice-extraction-service/internal/config"
	"github.com/ridwanfathin/invoice-extraction-service/internal/handler"
	"github.com/ridwanfathin/invoice-extraction-service/internal/middleware"
	"github.com/ridwanfathin/invoice-extraction-service/internal/repository"
	"github.com/ridwanfathin/invoice-extraction-service/internal/service"
	"github.com/ridwanfathin/invoice-extraction-service/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:            0,
		LogLevel:        "info",
		ImageStorage:    config.ImageStorageLocal,
		StaticDir:       t.TempDir(),
		StaticURLPrefix: "/static",
	}
}

func TestHealth(t *testing.T) {
	srv := NewServer(testConfig(t), nil)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSwaggerDocument(t *testing.T) {
	srv := NewServer(testConfig(t), nil)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api-docs/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/extract-invoice/")
	assert.Contains(t, w.Body.String(), "/submit-invoice/")
}

func TestStaticImages(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "a.png"), []byte("png"), 0o644))
	srv := NewServer(cfg, nil)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/a.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
}

func TestRegisterInvoiceRoutes(t *testing.T) {
	cfg := testConfig(t)
	srv := NewServer(cfg, nil)

	images, err := storage.NewLocalStore(cfg.StaticDir, cfg.StaticURLPrefix)
	require.NoError(t, err)
	svc := service.NewInvoiceService(nil, nil, images, repository.NewMemoryInvoiceRepository(), nil)
	srv.RegisterInvoiceRoutes(handler.NewInvoiceHandler(svc, nil, 0, nil))

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get-data/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}
