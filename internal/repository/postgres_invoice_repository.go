package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
)

// InvoicesTableDDL creates the invoices table. The serial id is internal and never returned.
const InvoicesTableDDL = `
CREATE TABLE IF NOT EXISTS invoices (
	id         BIGSERIAL PRIMARY KEY,
	image_url  TEXT NOT NULL,
	data       JSONB NOT NULL,
	edited     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresInvoiceRepository implements InvoiceRepository using PostgreSQL,
// storing each invoice as a JSONB document
type PostgresInvoiceRepository struct {
	db *pgxpool.Pool
}

// NewPostgresInvoiceRepository creates a new PostgreSQL invoice repository
func NewPostgresInvoiceRepository(db *pgxpool.Pool) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{
		db: db,
	}
}

// EnsureSchema creates the invoices table if it does not exist
func (r *PostgresInvoiceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, InvoicesTableDDL); err != nil {
		return &StoreError{Op: "ensure_schema", Err: err}
	}
	return nil
}

// Insert saves a new record. A single-row insert is atomic, so concurrent
// inserts need no extra coordination.
func (r *PostgresInvoiceRepository) Insert(ctx context.Context, record *domain.StoredInvoiceRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return &StoreError{Op: "insert", Err: fmt.Errorf("failed to marshal invoice: %w", err)}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO invoices (image_url, data, edited)
		VALUES ($1, $2, $3)
	`, record.ImageURL, data, record.Edited)
	if err != nil {
		return &StoreError{Op: "insert", Err: fmt.Errorf("failed to insert invoice: %w", err)}
	}

	return nil
}

// ListAll retrieves every record in insertion order
func (r *PostgresInvoiceRepository) ListAll(ctx context.Context) ([]domain.StoredInvoiceRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT image_url, data, edited
		FROM invoices
		ORDER BY id
	`)
	if err != nil {
		return nil, &StoreError{Op: "list_all", Err: fmt.Errorf("failed to query invoices: %w", err)}
	}
	defer rows.Close()

	records := make([]domain.StoredInvoiceRecord, 0)
	for rows.Next() {
		var (
			record domain.StoredInvoiceRecord
			data   []byte
		)
		if err := rows.Scan(&record.ImageURL, &data, &record.Edited); err != nil {
			return nil, &StoreError{Op: "list_all", Err: fmt.Errorf("failed to scan invoice: %w", err)}
		}
		if err := json.Unmarshal(data, &record.Data); err != nil {
			return nil, &StoreError{Op: "list_all", Err: fmt.Errorf("failed to decode invoice: %w", err)}
		}
		if record.Data.Items == nil {
			record.Data.Items = make([]domain.InvoiceItem, 0)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list_all", Err: fmt.Errorf("error iterating invoices: %w", err)}
	}

	return records, nil
}

// Close closes the connection pool
func (r *PostgresInvoiceRepository) Close() error {
	r.db.Close()
	return nil
}
