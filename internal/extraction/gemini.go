package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModelID is used when the gemini provider has no model configured
const DefaultGeminiModelID = "gemini-1.5-flash"

// Gemini is a Completer backed by Google Gemini
type Gemini struct {
	client  *genai.Client
	modelID string
}

// NewGemini creates a new Gemini backend
func NewGemini(ctx context.Context, apiKey, modelID string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelID == "" {
		modelID = DefaultGeminiModelID
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		modelID: modelID,
	}, nil
}

// Complete sends the prompt and image to Gemini and returns the concatenated text parts.
// The schema is appended to the prompt since it is not enforced by the API here.
func (g *Gemini) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(req.Temperature)

	prompt := req.Prompt
	if req.Mode == ModeSchema && req.Schema != nil {
		schemaJSON, err := json.Marshal(req.Schema)
		if err != nil {
			return "", &ExtractionError{
				Op:  "marshal_request",
				Err: fmt.Errorf("failed to marshal schema: %w", err),
			}
		}
		prompt += schemaSuffix + string(schemaJSON)
	}

	// genai.ImageData expects the format suffix ("png"), not the MIME type
	format := strings.TrimPrefix(req.Image.MIMEType, "image/")
	parts := []genai.Part{
		genai.ImageData(format, req.Image.Data),
		genai.Text(prompt),
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &ExtractionError{
			Op:  "send_request",
			Err: fmt.Errorf("generating content: %w", err),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &ExtractionError{
			Op:  "check_response_choices",
			Err: fmt.Errorf("no response from gemini"),
		}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return text.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
