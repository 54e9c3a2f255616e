package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
)

const invoicesBucket = "invoices"

// BoltInvoiceRepository stores records as JSON documents in an embedded bbolt file.
// Keys are big-endian sequence numbers, so iteration order is insertion order.
type BoltInvoiceRepository struct {
	db *bbolt.DB
}

// NewBoltInvoiceRepository opens (or creates) the bbolt file at path
func NewBoltInvoiceRepository(path string) (*BoltInvoiceRepository, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(invoicesBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, &StoreError{Op: "create_bucket", Err: err}
	}

	return &BoltInvoiceRepository{db: db}, nil
}

// Insert appends a record under the next bucket sequence
func (r *BoltInvoiceRepository) Insert(ctx context.Context, record *domain.StoredInvoiceRecord) error {
	if err := checkContext(ctx, "insert"); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return &StoreError{Op: "insert", Err: fmt.Errorf("marshaling record: %w", err)}
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoicesBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, data)
	})
	if err != nil {
		return &StoreError{Op: "insert", Err: err}
	}

	return nil
}

// ListAll returns every record in key order
func (r *BoltInvoiceRepository) ListAll(ctx context.Context) ([]domain.StoredInvoiceRecord, error) {
	if err := checkContext(ctx, "list_all"); err != nil {
		return nil, err
	}

	records := make([]domain.StoredInvoiceRecord, 0)
	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoicesBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var record domain.StoredInvoiceRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record %x: %w", k, err)
			}
			if record.Data.Items == nil {
				record.Data.Items = make([]domain.InvoiceItem, 0)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, &StoreError{Op: "list_all", Err: err}
	}

	return records, nil
}

// Close closes the bbolt file
func (r *BoltInvoiceRepository) Close() error {
	return r.db.Close()
}
