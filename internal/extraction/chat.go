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

// DefaultBaseURL is the Groq OpenAI-compatible endpoint
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultModelID is the hosted vision model used when none is configured
const DefaultModelID = "llama-3.2-11b-vision-preview"

// ChatConfig holds configuration for an OpenAI-compatible chat completions backend
type ChatConfig struct {
	APIKey  string
	BaseURL string
	ModelID string
	Timeout time.Duration
}

// DefaultChatConfig returns a default configuration for the chat completions backend
func DefaultChatConfig() *ChatConfig {
	return &ChatConfig{
		BaseURL: DefaultBaseURL,
		ModelID: DefaultModelID,
		Timeout: 60 * time.Second,
	}
}

// ChatCompletions is a Completer for any OpenAI-compatible chat completions API
// (Groq, OpenRouter, OpenAI)
type ChatCompletions struct {
	apiKey     string
	apiURL     string
	modelID    string
	httpClient *http.Client
}

// NewChatCompletions creates a new chat completions backend
func NewChatCompletions(config *ChatConfig) *ChatCompletions {
	if config == nil {
		config = DefaultChatConfig()
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelID := config.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}

	return &ChatCompletions{
		apiKey:  config.APIKey,
		apiURL:  strings.TrimRight(baseURL, "/") + "/chat/completions",
		modelID: modelID,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []chatMessage   `json:"messages"`
	Temperature float32         `json:"temperature"`
	Tools       []chatTool      `json:"tools,omitempty"`
	ToolChoice  *chatToolChoice `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request and returns the reply text.
// In ModeSchema the schema is sent as a forced function tool and the reply is
// the tool call arguments; otherwise it is the message content.
func (c *ChatCompletions) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", &ExtractionError{
			Op:  "validate_configuration",
			Err: fmt.Errorf("vision API key is not configured"),
		}
	}

	// Create the request payload
	payload := chatRequest{
		Model: c.modelID,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "text", Text: req.Prompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: req.Image.DataURL()}},
				},
			},
		},
		Temperature: req.Temperature,
	}

	if req.Mode == ModeSchema {
		name := req.SchemaName
		if name == "" {
			name = "Invoice"
		}
		payload.Tools = []chatTool{{
			Type: "function",
			Function: chatFunction{
				Name:        name,
				Description: "Structured invoice data extracted from the image",
				Parameters:  req.Schema,
			},
		}}
		choice := &chatToolChoice{Type: "function"}
		choice.Function.Name = name
		payload.ToolChoice = choice
	}

	requestData, err := json.Marshal(payload)
	if err != nil {
		return "", &ExtractionError{
			Op:  "marshal_request",
			Err: fmt.Errorf("failed to marshal request payload: %w", err),
		}
	}

	// Create the HTTP request
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(requestData))
	if err != nil {
		return "", &ExtractionError{
			Op:  "create_request",
			Err: fmt.Errorf("failed to create request: %w", err),
		}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	// Send the request
	resp, err := c.httpClient.Do(httpReq)
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
			Err: fmt.Errorf("failed to read response body: %w", err),
		}
	}

	// Check for error status code
	if resp.StatusCode != http.StatusOK {
		return "", &ExtractionError{
			Op:  "check_api_response",
			Err: fmt.Errorf("API error: %s - %s", resp.Status, string(respBody)),
		}
	}

	// Parse the response
	var response chatResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", &ExtractionError{
			Op:  "parse_response_json",
			Err: fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	if len(response.Choices) == 0 {
		return "", &ExtractionError{
			Op:  "check_response_choices",
			Err: fmt.Errorf("no choices in response"),
		}
	}

	message := response.Choices[0].Message
	if req.Mode == ModeSchema {
		if len(message.ToolCalls) == 0 {
			return "", &ExtractionError{
				Op:  "check_tool_call",
				Err: fmt.Errorf("model did not call the %s tool", payload.ToolChoice.Function.Name),
			}
		}
		return message.ToolCalls[0].Function.Arguments, nil
	}

	return message.Content, nil
}

// Close releases resources held by the backend
func (c *ChatCompletions) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
