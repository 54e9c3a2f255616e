// @title Invoice Extraction API
// @version 1.0
// @description Upload invoice images, review the extracted data and store it.
// @BasePath /
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ridwanfathin/invoice-extraction-service/internal/config"
	"github.com/ridwanfathin/invoice-extraction-service/internal/database"
	"github.com/ridwanfathin/invoice-extraction-service/internal/export"
	"github.com/ridwanfathin/invoice-extraction-service/internal/extraction"
	"github.com/ridwanfathin/invoice-extraction-service/internal/handler"
	"github.com/ridwanfathin/invoice-extraction-service/internal/imageutil"
	"github.com/ridwanfathin/invoice-extraction-service/internal/repository"
	"github.com/ridwanfathin/invoice-extraction-service/internal/schema"
	"github.com/ridwanfathin/invoice-extraction-service/internal/server"
	"github.com/ridwanfathin/invoice-extraction-service/internal/service"
	"github.com/ridwanfathin/invoice-extraction-service/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server.exit", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	// Initialize repository
	logger.Info("startup.repository", slog.String("driver", cfg.StoreDriver))
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Initialize image storage
	images, err := openImageStore(cfg)
	if err != nil {
		return err
	}

	// Initialize the vision model backend
	completer, err := extraction.NewCompleter(ctx, &extraction.CompleterConfig{
		Provider: cfg.VisionProvider,
		APIKey:   cfg.VisionAPIKey,
		BaseURL:  cfg.VisionBaseURL,
		ModelID:  cfg.VisionModelID,
		Timeout:  cfg.VisionTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create vision client: %w", err)
	}
	defer completer.Close()

	// Self-hosted backends may still be loading; extraction fails per request until they are up
	if checker, ok := completer.(interface{ HealthCheck(context.Context) error }); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			logger.Warn("startup.vision.unhealthy", slog.String("provider", cfg.VisionProvider), slog.Any("error", err))
		}
	}

	validator, err := schema.NewValidator(cfg.StrictValidation)
	if err != nil {
		return fmt.Errorf("failed to build schema validator: %w", err)
	}

	mode, err := extraction.ParseResponseMode(cfg.VisionResponseMode)
	if err != nil {
		return err
	}

	resize := imageutil.DefaultConfig()
	resize.MaxDimension = cfg.ImageMaxDimension

	extractor := extraction.NewClient(completer, validator, &extraction.Config{
		Mode:        mode,
		Temperature: float32(cfg.VisionTemperature),
		Timeout:     cfg.VisionTimeout,
		Resize:      resize,
	}, logger)

	// Create services and handler
	invoiceService := service.NewInvoiceService(extractor, validator, images, repo, logger)
	exportService := export.NewService(repo, logger)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, exportService, cfg.MaxUploadSize, logger)

	// Create and configure server
	appServer := server.NewServer(cfg, logger)
	appServer.RegisterInvoiceRoutes(invoiceHandler)

	// Start server (blocking call)
	if err := appServer.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server.exit.ok")
	return nil
}

// openRepository opens the record store selected by STORE_DRIVER
func openRepository(ctx context.Context, cfg *config.Config) (repository.InvoiceRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := repository.NewPostgresInvoiceRepository(db.Pool())
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	case config.StoreDriverBolt:
		return repository.NewBoltInvoiceRepository(cfg.DatabaseURL)
	default:
		return repository.NewMemoryInvoiceRepository(), nil
	}
}

// openImageStore builds the image store selected by IMAGE_STORAGE
func openImageStore(cfg *config.Config) (storage.ImageStore, error) {
	if cfg.ImageStorage == config.ImageStorageS3 {
		uploader, err := storage.NewS3Uploader(&storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3AccessKeySecret,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 uploader: %w", err)
		}
		return uploader, nil
	}

	store, err := storage.NewLocalStore(cfg.StaticDir, cfg.StaticURLPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return store, nil
}
