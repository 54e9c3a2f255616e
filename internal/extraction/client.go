package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
	"github.com/ridwanfathin/invoice-extraction-service/internal/imageutil"
	"github.com/ridwanfathin/invoice-extraction-service/internal/schema"
)

// Provider names accepted by NewCompleter
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMLX    = "mlx"
)

// Config holds configuration for the extraction client
type Config struct {
	Mode        ResponseMode
	Temperature float32
	Timeout     time.Duration // Ceiling for one model round trip
	Resize      *imageutil.ResizeConfig
}

// DefaultConfig returns a default configuration for the extraction client
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeSchema,
		Temperature: 0.4,
		Timeout:     60 * time.Second,
		Resize:      imageutil.DefaultConfig(),
	}
}

// Client derives validated invoices from images with a hosted vision model
type Client struct {
	completer Completer
	validator *schema.Validator
	config    *Config
	logger    *slog.Logger
}

// NewClient creates a new extraction client
func NewClient(completer Completer, validator *schema.Validator, config *Config, logger *slog.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Mode == "" {
		config.Mode = ModeSchema
	}
	if validator == nil {
		validator, _ = schema.NewValidator(false)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		completer: completer,
		validator: validator,
		config:    config,
		logger:    logger,
	}
}

// ExtractInvoiceData extracts a validated invoice from raw image bytes.
// Exactly one request is sent to the model; failures are not retried.
func (c *Client) ExtractInvoiceData(ctx context.Context, imageData []byte) (*domain.Invoice, error) {
	// Encode the image
	image, err := c.encodeImage(imageData)
	if err != nil {
		return nil, err
	}

	req := &CompletionRequest{
		Prompt:      buildPrompt(c.config.Mode),
		Image:       image,
		Mode:        c.config.Mode,
		SchemaName:  "Invoice",
		Temperature: c.config.Temperature,
	}
	if c.config.Mode == ModeSchema {
		req.Schema = schema.InvoiceJSONSchema()
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	c.logger.Debug("extraction.request.start",
		slog.String("mode", string(c.config.Mode)),
		slog.String("mime_type", image.MIMEType),
		slog.Int("bytes", len(image.Data)))

	start := time.Now()
	reply, err := c.completer.Complete(ctx, req)
	if err != nil {
		c.logger.Warn("extraction.request.failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))

		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, err
		}
		return nil, &ExtractionError{Op: "complete", Err: err}
	}

	c.logger.Debug("extraction.request.ok", slog.Duration("elapsed", time.Since(start)))

	// Parse the reply
	invoice, err := c.parseReply(reply)
	if err != nil {
		c.logger.Warn("extraction.reply.invalid", slog.Any("error", err))
		return nil, err
	}

	return invoice, nil
}

// encodeImage checks the bytes are an image and applies the optional downscale
func (c *Client) encodeImage(imageData []byte) (Image, error) {
	mimeType := imageutil.DetectImageType(imageData)
	if mimeType == "" {
		return Image{}, &ExtractionError{
			Op:  "encode_image",
			Err: fmt.Errorf("unsupported or empty image data"),
		}
	}

	if c.config.Resize == nil || c.config.Resize.MaxDimension <= 0 {
		return Image{Data: imageData, MIMEType: mimeType}, nil
	}

	resized, resizedType, err := imageutil.ResizeImage(imageData, c.config.Resize)
	if err != nil {
		return Image{}, &ExtractionError{
			Op:  "encode_image",
			Err: fmt.Errorf("failed to resize image: %w", err),
		}
	}

	return Image{Data: resized, MIMEType: resizedType}, nil
}

// parseReply decodes the model reply and validates it against the invoice schema.
// Tool call arguments are already bare JSON and are validated as sent. Backends
// that only take the schema as prompt text may still wrap the object in fences
// or prose, so a reply that fails as sent is unwrapped and tried once more.
func (c *Client) parseReply(reply string) (*domain.Invoice, error) {
	invoice, err := c.validator.ValidateJSON([]byte(reply))
	if err == nil {
		return invoice, nil
	}

	object, extractErr := extractJSONObject(reply)
	if extractErr != nil {
		return nil, &ExtractionError{Op: "parse_reply", Err: extractErr}
	}
	if object == strings.TrimSpace(reply) {
		return nil, &ExtractionError{Op: "validate_reply", Err: err}
	}

	invoice, err = c.validator.ValidateJSON([]byte(object))
	if err != nil {
		return nil, &ExtractionError{Op: "validate_reply", Err: err}
	}

	return invoice, nil
}

// CompleterConfig selects and configures a model backend
type CompleterConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	ModelID  string
	Timeout  time.Duration
}

// NewCompleter builds the Completer for the configured provider
func NewCompleter(ctx context.Context, config *CompleterConfig) (Completer, error) {
	switch strings.ToLower(config.Provider) {
	case ProviderOpenAI, "":
		return NewChatCompletions(&ChatConfig{
			APIKey:  config.APIKey,
			BaseURL: config.BaseURL,
			ModelID: config.ModelID,
			Timeout: config.Timeout,
		}), nil
	case ProviderGemini:
		return NewGemini(ctx, config.APIKey, config.ModelID)
	case ProviderMLX:
		return NewMLX(&MLXConfig{BaseURL: config.BaseURL, Timeout: config.Timeout}), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", config.Provider)
	}
}
