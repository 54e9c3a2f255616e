package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
	"github.com/ridwanfathin/invoice-extraction-service/internal/export"
	"github.com/ridwanfathin/invoice-extraction-service/internal/extraction"
	"github.com/ridwanfathin/invoice-extraction-service/internal/repository"
	"github.com/ridwanfathin/invoice-extraction-service/internal/schema"
	"github.com/ridwanfathin/invoice-extraction-service/internal/service"
	"github.com/ridwanfathin/invoice-extraction-service/internal/storage"
)

const invoiceJSON = `{"billed_from":"Acme, 1 Main St","billed_to":"Bob, 2 Oak Ave","invoice_number":"INV-001","date":"2024-01-01","items":[{"description":"Widget","quantity":2,"price":5.0,"amount":10.0}],"total":10.0}`

func init() {
	gin.SetMode(gin.TestMode)
}

type stubExtractor struct {
	invoice *domain.Invoice
	err     error
}

func (s *stubExtractor) ExtractInvoiceData(context.Context, []byte) (*domain.Invoice, error) {
	return s.invoice, s.err
}

type testEnv struct {
	router *gin.Engine
	repo   *repository.MemoryInvoiceRepository
}

func newTestEnv(t *testing.T, extractor service.Extractor, maxFileSize int64) *testEnv {
	t.Helper()
	images, err := storage.NewLocalStore(t.TempDir(), "/static")
	require.NoError(t, err)
	repo := repository.NewMemoryInvoiceRepository()
	svc := service.NewInvoiceService(extractor, nil, images, repo, nil)

	router := gin.New()
	NewInvoiceHandler(svc, export.NewService(repo, nil), maxFileSize, nil).RegisterRoutes(router)
	return &testEnv{router: router, repo: repo}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract-invoice/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func submitRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/submit-invoice/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(env *testEnv, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestExtractInvoice_Success(t *testing.T) {
	invoice, err := schema.ValidateJSON([]byte(invoiceJSON))
	require.NoError(t, err)
	env := newTestEnv(t, &stubExtractor{invoice: invoice}, 0)

	w, body := serve(env, uploadRequest(t, "file", "scan.png", testPNG(t)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(body["image_url"].(string), "/static/"))

	extracted, err := json.Marshal(body["extracted_text"])
	require.NoError(t, err)
	assert.JSONEq(t, invoiceJSON, string(extracted))
}

func TestExtractInvoice_ExtractionFailure(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{err: &extraction.ExtractionError{Op: "send_request", Err: errors.New("connection refused")}}, 0)

	w, body := serve(env, uploadRequest(t, "file", "scan.png", testPNG(t)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["image_url"])
	extracted := body["extracted_text"].(map[string]any)
	assert.Contains(t, extracted["error"], "connection refused")
	assert.Equal(t, service.KindExtraction, extracted["kind"])

	records, err := env.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractInvoice_BadRequests(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, 1024)

	tests := []struct {
		name    string
		req     *http.Request
		message string
	}{
		{name: "wrong field", req: uploadRequest(t, "image", "scan.png", testPNG(t)), message: ErrFileUpload},
		{name: "oversized", req: uploadRequest(t, "file", "scan.png", make([]byte, 2048)), message: ErrFileTooLarge},
		{name: "empty file", req: uploadRequest(t, "file", "scan.png", nil), message: "uploaded file is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serve(env, tt.req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, body["error"], tt.message)
			assert.Equal(t, service.KindRequest, body["kind"])
		})
	}
}

func TestSubmitInvoice_StoresRecord(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, 0)

	w, body := serve(env, submitRequest(url.Values{
		"image_url":      {"/static/a.png"},
		"extracted_text": {invoiceJSON},
	}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, submitSuccessMessage, body["message"])

	records, err := env.repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/static/a.png", records[0].ImageURL)
	assert.False(t, records[0].Edited)
}

func TestSubmitInvoice_Errors(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, 0)

	t.Run("missing image url", func(t *testing.T) {
		w, body := serve(env, submitRequest(url.Values{"extracted_text": {invoiceJSON}}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrMissingImageURL, body["error"])
	})

	t.Run("missing invoice", func(t *testing.T) {
		w, body := serve(env, submitRequest(url.Values{"image_url": {"/static/a.png"}}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrMissingInvoice, body["error"])
	})

	t.Run("invalid invoice", func(t *testing.T) {
		w, body := serve(env, submitRequest(url.Values{
			"image_url":      {"/static/a.png"},
			"extracted_text": {`{"billed_from":"A"}`},
		}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, body["error"], "billed_to")
		assert.Equal(t, service.KindValidation, body["kind"])
	})

	records, err := env.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetData(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, 0)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get-data/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	serve(env, submitRequest(url.Values{"image_url": {"/static/a.png"}, "extracted_text": {invoiceJSON}}))

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get-data/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"image_url":"/static/a.png","data":`+invoiceJSON+`,"edited":false}]}`, w.Body.String())
}

func TestExportData(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, 0)
	serve(env, submitRequest(url.Values{"image_url": {"/static/a.png"}, "extracted_text": {invoiceJSON}}))

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export-data/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	// XLSX files are zip archives
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}
