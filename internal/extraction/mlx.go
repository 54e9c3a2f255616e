package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultMLXBaseURL is where a locally hosted MLX-VLM service listens by default
const DefaultMLXBaseURL = "http://localhost:8000"

// MLXConfig holds configuration for the MLX-VLM backend
type MLXConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MLX is a Completer for a self-hosted MLX-VLM extraction service. The
// service replies with the JSON document as its whole response body.
type MLX struct {
	baseURL    string
	httpClient *http.Client
}

// NewMLX creates a new MLX-VLM backend
func NewMLX(config *MLXConfig) *MLX {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultMLXBaseURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 300 * time.Second // local models are slow on first load
	}

	return &MLX{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type mlxRequest struct {
	Prompt      string         `json:"prompt"`
	Image       string         `json:"image"`
	Temperature float32        `json:"temperature"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// Complete posts the prompt and the image data URL to /extract
func (m *MLX) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	payload := mlxRequest{
		Prompt:      req.Prompt,
		Image:       req.Image.DataURL(),
		Temperature: req.Temperature,
	}
	if req.Mode == ModeSchema {
		payload.Schema = req.Schema
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", &ExtractionError{
			Op:  "marshal_request",
			Err: fmt.Errorf("failed to marshal JSON payload: %w", err),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/extract", bytes.NewReader(jsonData))
	if err != nil {
		return "", &ExtractionError{
			Op:  "create_request",
			Err: fmt.Errorf("failed to create request: %w", err),
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return "", &ExtractionError{
			Op:  "send_request",
			Err: fmt.Errorf("failed to send request: %w", err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ExtractionError{
			Op:  "read_response",
			Err: fmt.Errorf("failed to read response: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ExtractionError{
			Op:  "check_api_response",
			Err: fmt.Errorf("MLX service error (status %d): %s", resp.StatusCode, string(respBody)),
		}
	}

	return string(respBody), nil
}

// HealthCheck checks if the MLX service is healthy
func (m *MLX) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// Close releases idle connections
func (m *MLX) Close() error {
	m.httpClient.CloseIdleConnections()
	return nil
}
