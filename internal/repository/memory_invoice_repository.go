package repository

import (
	"context"
	"sync"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
)

// MemoryInvoiceRepository keeps records in process memory. Used for local
// development and tests; contents are lost on restart.
type MemoryInvoiceRepository struct {
	mutex   sync.RWMutex
	records []domain.StoredInvoiceRecord
}

// NewMemoryInvoiceRepository creates an empty in-memory repository
func NewMemoryInvoiceRepository() *MemoryInvoiceRepository {
	return &MemoryInvoiceRepository{
		records: make([]domain.StoredInvoiceRecord, 0),
	}
}

// Insert appends a copy of the record
func (r *MemoryInvoiceRepository) Insert(ctx context.Context, record *domain.StoredInvoiceRecord) error {
	if err := checkContext(ctx, "insert"); err != nil {
		return err
	}

	stored := cloneRecord(record)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.records = append(r.records, stored)
	return nil
}

// ListAll returns the records in insertion order
func (r *MemoryInvoiceRepository) ListAll(ctx context.Context) ([]domain.StoredInvoiceRecord, error) {
	if err := checkContext(ctx, "list_all"); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	records := make([]domain.StoredInvoiceRecord, len(r.records))
	for i := range r.records {
		records[i] = cloneRecord(&r.records[i])
	}
	return records, nil
}

// cloneRecord copies a record so the caller and the store share no items or optional fields
func cloneRecord(record *domain.StoredInvoiceRecord) domain.StoredInvoiceRecord {
	clone := *record
	clone.Data.Items = append(make([]domain.InvoiceItem, 0, len(record.Data.Items)), record.Data.Items...)
	clone.Data.PaymentMethod = cloneString(record.Data.PaymentMethod)
	clone.Data.Notes = cloneString(record.Data.Notes)
	return clone
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Close is a no-op
func (r *MemoryInvoiceRepository) Close() error {
	return nil
}
