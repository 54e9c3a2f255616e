package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/ridwanfathin/invoice-extraction-service/internal/database"
)

const migrationsDir = "scripts/migrations"

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		slog.Info("migration.dotenv.missing")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		slog.Error("DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to database
	db, err := database.NewPostgresDB(ctx, dbURL)
	if err != nil {
		slog.Error("migration.connect.failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Migration files run in name order
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil || len(files) == 0 {
		slog.Error("migration.files.missing", slog.String("dir", migrationsDir), slog.Any("error", err))
		os.Exit(1)
	}
	sort.Strings(files)

	// Execute all migrations in one transaction
	err = db.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		for _, file := range files {
			migrationSQL, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, string(migrationSQL)); err != nil {
				return err
			}
			slog.Info("migration.file.ok", slog.String("file", filepath.Base(file)))
		}
		return nil
	})
	if err != nil {
		slog.Error("migration.failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("migration.ok", slog.Int("files", len(files)))
}
