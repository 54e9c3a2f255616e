package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBolt     = "bolt"
	StoreDriverMemory   = "memory"
)

// Image storage backends accepted in IMAGE_STORAGE
const (
	ImageStorageLocal = "local"
	ImageStorageS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogFormat    string
	LogLevel     string

	// Record store configuration
	StoreDriver string
	DatabaseURL string

	// Vision model configuration
	VisionProvider     string
	VisionAPIKey       string
	VisionBaseURL      string
	VisionModelID      string
	VisionTimeout      time.Duration
	VisionResponseMode string
	VisionTemperature  float64
	StrictValidation   bool
	ImageMaxDimension  int

	// Upload and image storage configuration
	MaxUploadSize   int64
	ImageStorage    string
	StaticDir       string
	StaticURLPrefix string

	S3Endpoint        string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	S3Region          string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	loadDotEnv()

	// Unparsable numeric values are collected and reported together
	var errs []error
	config := &Config{
		// Server configuration
		Port:         getEnvInt("PORT", 8080, &errs),
		ReadTimeout:  time.Duration(getEnvInt("READ_TIMEOUT", 30, &errs)) * time.Second,
		WriteTimeout: time.Duration(getEnvInt("WRITE_TIMEOUT", 120, &errs)) * time.Second,
		LogFormat:    strings.ToLower(getEnvString("LOG_FORMAT", "json")),
		LogLevel:     strings.ToLower(getEnvString("LOG_LEVEL", "info")),

		// Record store configuration
		StoreDriver: strings.ToLower(getEnvString("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Vision model configuration
		VisionProvider:     strings.ToLower(getEnvString("VISION_PROVIDER", "openai")),
		VisionAPIKey:       getEnvString("VISION_API_KEY", os.Getenv("GROQ_API_KEY")),
		VisionBaseURL:      os.Getenv("VISION_BASE_URL"),
		VisionModelID:      os.Getenv("VISION_MODEL_ID"),
		VisionTimeout:      time.Duration(getEnvInt("VISION_TIMEOUT", 60, &errs)) * time.Second,
		VisionResponseMode: strings.ToLower(getEnvString("VISION_RESPONSE_MODE", "schema")),
		VisionTemperature:  getEnvFloat("VISION_TEMPERATURE", 0.4, &errs),
		StrictValidation:   getEnvBool("STRICT_VALIDATION", false),
		ImageMaxDimension:  getEnvInt("IMAGE_MAX_DIMENSION", 0, &errs),

		// Upload and image storage configuration
		MaxUploadSize:   int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10, &errs)) * 1024 * 1024,
		ImageStorage:    strings.ToLower(getEnvString("IMAGE_STORAGE", ImageStorageLocal)),
		StaticDir:       getEnvString("STATIC_DIR", "static"),
		StaticURLPrefix: getEnvString("STATIC_URL_PREFIX", "/static"),

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
		S3Bucket:          getEnvString("S3_BUCKET", "invoices"),
		S3Region:          getEnvString("S3_REGION", "us-east-1"),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if config.VisionBaseURL == "" {
		config.VisionBaseURL = defaultBaseURL(config.VisionProvider)
	}

	// Validate critical configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// defaultBaseURL returns the endpoint used when VISION_BASE_URL is unset
func defaultBaseURL(provider string) string {
	if provider == "mlx" {
		return "http://localhost:8000"
	}
	return "https://api.groq.com/openai/v1"
}

// loadDotEnv loads a .env file from the project root or the working directory, if one exists
func loadDotEnv() {
	if execPath, err := os.Executable(); err == nil {
		projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(execPath)))
		envPath := filepath.Join(projectRoot, ".env")
		if err := godotenv.Load(envPath); err == nil {
			slog.Info("config.dotenv.loaded", slog.String("path", envPath))
			return
		}
	}

	// Try loading from current directory as fallback
	if err := godotenv.Load(); err == nil {
		slog.Info("config.dotenv.loaded", slog.String("path", ".env"))
	}
}

// validateConfig checks that critical configuration values are set and consistent
func validateConfig(config *Config) error {
	switch config.VisionProvider {
	case "openai", "gemini":
		if config.VisionAPIKey == "" {
			return fmt.Errorf("VISION_API_KEY (or GROQ_API_KEY) is required")
		}
	case "mlx":
		// Self-hosted; VISION_BASE_URL points at the MLX-VLM service
	default:
		return fmt.Errorf("invalid VISION_PROVIDER %q: want openai, gemini or mlx", config.VisionProvider)
	}

	switch config.VisionResponseMode {
	case "schema", "json":
	default:
		return fmt.Errorf("invalid VISION_RESPONSE_MODE %q: want schema or json", config.VisionResponseMode)
	}

	switch config.StoreDriver {
	case StoreDriverPostgres, StoreDriverBolt:
		if config.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=%s", config.StoreDriver)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want postgres, bolt or memory", config.StoreDriver)
	}

	switch config.ImageStorage {
	case ImageStorageLocal:
	case ImageStorageS3:
		if config.S3Endpoint == "" || config.S3AccessKeyID == "" || config.S3AccessKeySecret == "" {
			return fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_ACCESS_KEY_SECRET are required for IMAGE_STORAGE=s3")
		}
	default:
		return fmt.Errorf("invalid IMAGE_STORAGE %q: want local or s3", config.ImageStorage)
	}

	if config.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}

	// A request may wait a full model round trip before it can respond
	if config.WriteTimeout <= config.VisionTimeout {
		slog.Warn("config.write_timeout.short",
			slog.Duration("write_timeout", config.WriteTimeout),
			slog.Duration("vision_timeout", config.VisionTimeout))
	}

	return nil
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL
func NewLogger(config *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch config.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if config.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// getEnvInt gets an integer from an environment variable with a default value.
// A value that does not parse is appended to errs.
func getEnvInt(key string, defaultValue int, errs *[]error) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: want an integer", key, valueStr))
		return defaultValue
	}

	return value
}

// getEnvFloat gets a float from an environment variable with a default value.
// A value that does not parse is appended to errs.
func getEnvFloat(key string, defaultValue float64, errs *[]error) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: want a number", key, valueStr))
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean from an environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
