package repository

import (
	"context"
	"fmt"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
)

// StoreError represents a connectivity or write failure in the record store
type StoreError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
	}
	return "store error: " + e.Op
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// InvoiceRepository is the append-only collection of accepted invoice records.
// Implementations must tolerate concurrent inserts.
type InvoiceRepository interface {
	// Insert appends a record. Duplicate invoice numbers are allowed.
	Insert(ctx context.Context, record *domain.StoredInvoiceRecord) error

	// ListAll returns every stored record in store-native order, without the
	// store's internal identifier. An empty store yields an empty slice.
	ListAll(ctx context.Context) ([]domain.StoredInvoiceRecord, error)

	// Close releases the underlying connection
	Close() error
}

// checkContext returns a StoreError when the context is already done
func checkContext(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return &StoreError{Op: op, Err: ctx.Err()}
	default:
		return nil
	}
}
