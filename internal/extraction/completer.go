package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// ResponseMode selects how the model reply is constrained
type ResponseMode string

const (
	// ModeSchema enforces the invoice schema at the API boundary
	ModeSchema ResponseMode = "schema"
	// ModeJSON asks for free-form JSON text which is parsed locally
	ModeJSON ResponseMode = "json"
)

// ParseResponseMode converts a configuration value into a ResponseMode
func ParseResponseMode(s string) (ResponseMode, error) {
	switch ResponseMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSchema, "":
		return ModeSchema, nil
	case ModeJSON:
		return ModeJSON, nil
	default:
		return "", fmt.Errorf("unknown response mode %q", s)
	}
}

// Image is an encoded invoice image attached to a completion request
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL returns the image as an inline base64 data URL
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// CompletionRequest is a single prompt-plus-image request to a vision model
type CompletionRequest struct {
	Prompt      string
	Image       Image
	Mode        ResponseMode
	Schema      map[string]any // JSON schema of the expected reply, used in ModeSchema
	SchemaName  string
	Temperature float32
}

// Completer sends one request to a hosted vision model and returns the raw
// reply text. It is the only place a network call to the model is made.
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
	Close() error
}
