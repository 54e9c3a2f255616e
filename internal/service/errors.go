package service

import (
	"errors"
	"fmt"

	"github.com/ridwanfathin/invoice-extraction-service/internal/extraction"
	"github.com/ridwanfathin/invoice-extraction-service/internal/repository"
	"github.com/ridwanfathin/invoice-extraction-service/internal/schema"
	"github.com/ridwanfathin/invoice-extraction-service/internal/storage"
)

// ErrInvalidInput marks a malformed request, such as an empty upload
var ErrInvalidInput = errors.New("invalid input")

// Error kinds reported to callers alongside the error message
const (
	KindRequest    = "request"
	KindValidation = "validation"
	KindExtraction = "extraction"
	KindStore      = "store"
	KindStorage    = "storage"
	KindInternal   = "internal"
)

// InvoiceProcessingError represents an error that occurred during invoice processing
type InvoiceProcessingError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *InvoiceProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *InvoiceProcessingError) Unwrap() error {
	return e.Err
}

func invalidInput(op, reason string) error {
	return &InvoiceProcessingError{Op: op, Err: fmt.Errorf("%w: %s", ErrInvalidInput, reason)}
}

// ErrorKind classifies err so callers can tell failure categories apart.
// A schema failure inside an extraction reply is reported as validation.
func ErrorKind(err error) string {
	var (
		validationErr *schema.ValidationError
		extractionErr *extraction.ExtractionError
		storeErr      *repository.StoreError
		storageErr    *storage.StorageError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindRequest
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &extractionErr):
		return KindExtraction
	case errors.As(err, &storeErr):
		return KindStore
	case errors.As(err, &storageErr):
		return KindStorage
	default:
		return KindInternal
	}
}
