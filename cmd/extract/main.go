// Command extract runs one invoice image through the vision model and prints
// the validated invoice as JSON. With --save the result is also appended to a
// bbolt record store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
	"github.com/ridwanfathin/invoice-extraction-service/internal/extraction"
	"github.com/ridwanfathin/invoice-extraction-service/internal/imageutil"
	"github.com/ridwanfathin/invoice-extraction-service/internal/repository"
	"github.com/ridwanfathin/invoice-extraction-service/internal/schema"
	"github.com/ridwanfathin/invoice-extraction-service/internal/service"
)

func main() {
	fs := ff.NewFlagSet("extract")
	var (
		provider     = fs.StringLong("provider", extraction.ProviderOpenAI, "Vision backend: 'openai', 'gemini' or 'mlx'")
		apiKey       = fs.StringLong("api-key", "", "Vision API key (or set INVOICE_API_KEY)")
		baseURL      = fs.StringLong("base-url", "", "Backend base URL (Groq for openai, localhost:8000 for mlx when empty)")
		modelID      = fs.StringLong("model", "", "Model name (provider default when empty)")
		mode         = fs.StringLong("mode", string(extraction.ModeSchema), "Response mode: 'schema' or 'json'")
		timeout      = fs.DurationLong("timeout", 60*time.Second, "Ceiling for the model round trip")
		temperature  = fs.Float64Long("temperature", 0.4, "Sampling temperature")
		maxDimension = fs.IntLong("max-dimension", 0, "Downscale the image sent to the model (0 keeps it)")
		strict       = fs.BoolLong("strict", "Reject blank descriptions and party names")
		savePath     = fs.StringLong("save", "", "Append the result to this bbolt file")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := fs.GetArgs()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: exactly one image path is required")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	invoice, err := extract(ctx, args[0], &options{
		completer: &extraction.CompleterConfig{
			Provider: *provider,
			APIKey:   *apiKey,
			BaseURL:  resolveBaseURL(*provider, *baseURL),
			ModelID:  *modelID,
			Timeout:  *timeout,
		},
		mode:         *mode,
		temperature:  float32(*temperature),
		timeout:      *timeout,
		maxDimension: *maxDimension,
		strict:       *strict,
	}, logger)
	if err != nil {
		logger.Error("extract.failed", slog.String("kind", service.ErrorKind(err)), slog.Any("error", err))
		os.Exit(1)
	}

	if *savePath != "" {
		if err := save(ctx, *savePath, args[0], invoice); err != nil {
			logger.Error("extract.save.failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("extract.save.ok", slog.String("path", *savePath))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(invoice); err != nil {
		logger.Error("extract.encode.failed", slog.Any("error", err))
		os.Exit(1)
	}
}

type options struct {
	completer    *extraction.CompleterConfig
	mode         string
	temperature  float32
	timeout      time.Duration
	maxDimension int
	strict       bool
}

// resolveBaseURL returns the endpoint for the provider when --base-url is unset
func resolveBaseURL(provider, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	if strings.EqualFold(provider, extraction.ProviderMLX) {
		return extraction.DefaultMLXBaseURL
	}
	return extraction.DefaultBaseURL
}

// extract reads the image at path and sends it through a freshly built extraction client
func extract(ctx context.Context, path string, opts *options, logger *slog.Logger) (*domain.Invoice, error) {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	responseMode, err := extraction.ParseResponseMode(opts.mode)
	if err != nil {
		return nil, err
	}

	validator, err := schema.NewValidator(opts.strict)
	if err != nil {
		return nil, err
	}

	completer, err := extraction.NewCompleter(ctx, opts.completer)
	if err != nil {
		return nil, err
	}
	defer completer.Close()

	resize := imageutil.DefaultConfig()
	resize.MaxDimension = opts.maxDimension

	client := extraction.NewClient(completer, validator, &extraction.Config{
		Mode:        responseMode,
		Temperature: opts.temperature,
		Timeout:     opts.timeout,
		Resize:      resize,
	}, logger)

	return client.ExtractInvoiceData(ctx, imageData)
}

// save appends the invoice to the bbolt store, keyed by its source path
func save(ctx context.Context, dbPath, imagePath string, invoice *domain.Invoice) error {
	repo, err := repository.NewBoltInvoiceRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	return repo.Insert(ctx, domain.NewStoredInvoiceRecord(imagePath, *invoice))
}
