package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMLX_ExtractsThroughClient(t *testing.T) {
	var captured mlxRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(stubInvoiceJSON))
	}))
	defer server.Close()

	completer, err := NewCompleter(context.Background(), &CompleterConfig{Provider: ProviderMLX, BaseURL: server.URL + "/"})
	require.NoError(t, err)
	require.IsType(t, &MLX{}, completer)

	client := NewClient(completer, nil, nil, nil)
	invoice, err := client.ExtractInvoiceData(context.Background(), testPNG(t, 4, 4))
	require.NoError(t, err)

	assert.Equal(t, expectedInvoice(), invoice)
	assert.True(t, strings.HasPrefix(captured.Image, "data:image/png;base64,"))
	assert.NotEmpty(t, captured.Schema)
	assert.InDelta(t, 0.4, captured.Temperature, 1e-6)
}

func TestMLX_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	mlx := NewMLX(&MLXConfig{BaseURL: server.URL})
	_, err := mlx.Complete(context.Background(), &CompletionRequest{Image: Image{Data: []byte("x"), MIMEType: "image/png"}})

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "check_api_response", extractionErr.Op)
	assert.Contains(t, err.Error(), "model not loaded")

	assert.Error(t, mlx.HealthCheck(context.Background()))
}

func TestMLX_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mlx := NewMLX(&MLXConfig{BaseURL: server.URL})
	assert.NoError(t, mlx.HealthCheck(context.Background()))
	assert.NoError(t, mlx.Close())
}
