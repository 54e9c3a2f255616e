package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
	"github.com/ridwanfathin/invoice-extraction-service/internal/imageutil"
	"github.com/ridwanfathin/invoice-extraction-service/internal/repository"
	"github.com/ridwanfathin/invoice-extraction-service/internal/schema"
	"github.com/ridwanfathin/invoice-extraction-service/internal/storage"
)

// Extractor derives an invoice from image bytes
type Extractor interface {
	ExtractInvoiceData(ctx context.Context, imageData []byte) (*domain.Invoice, error)
}

// InvoiceServicer defines the upload, review and submit workflow
type InvoiceServicer interface {
	// ExtractDraft stores the image and extracts a draft invoice without persisting it
	ExtractDraft(ctx context.Context, filename string, imageData []byte) (*Draft, error)

	// SubmitInvoice validates a reviewed draft and stores it
	SubmitInvoice(ctx context.Context, imageURL string, invoiceJSON []byte) (*domain.StoredInvoiceRecord, error)

	// ListInvoices returns every stored record
	ListInvoices(ctx context.Context) ([]domain.StoredInvoiceRecord, error)
}

// Draft is the result of an upload: the stored image reference plus either
// the extracted invoice or the extraction error
type Draft struct {
	ImageURL string
	Invoice  *domain.Invoice
	Err      error
}

// InvoiceService implements InvoiceServicer. Each call is independent; the
// only shared state is the image store and the record store.
type InvoiceService struct {
	extractor  Extractor
	validator  *schema.Validator
	images     storage.ImageStore
	repository repository.InvoiceRepository
	logger     *slog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	extractor Extractor,
	validator *schema.Validator,
	images storage.ImageStore,
	repo repository.InvoiceRepository,
	logger *slog.Logger,
) *InvoiceService {
	if validator == nil {
		validator, _ = schema.NewValidator(false)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &InvoiceService{
		extractor:  extractor,
		validator:  validator,
		images:     images,
		repository: repo,
		logger:     logger,
	}
}

// ExtractDraft saves the upload under a fresh key, then extracts the invoice.
// An extraction failure is returned inside the draft; the image stays stored
// and nothing is written to the record store.
func (s *InvoiceService) ExtractDraft(ctx context.Context, filename string, imageData []byte) (*Draft, error) {
	if len(imageData) == 0 {
		return nil, invalidInput("extract_draft", "uploaded file is empty")
	}

	// Store the image
	key := storage.NewImageKey(filename, imageData)
	contentType := imageutil.DetectImageType(imageData)
	imageURL, err := s.images.Save(ctx, key, imageData, contentType)
	if err != nil {
		s.logger.Error("invoice.image.save_failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("invoice.image.saved", slog.String("image_url", imageURL), slog.Int("bytes", len(imageData)))

	// Extract the invoice
	invoice, err := s.extractor.ExtractInvoiceData(ctx, imageData)
	if err != nil {
		s.logger.Warn("invoice.extract.failed",
			slog.String("image_url", imageURL),
			slog.String("kind", ErrorKind(err)),
			slog.Any("error", err))
		return &Draft{ImageURL: imageURL, Err: err}, nil
	}

	s.logger.Info("invoice.extract.ok",
		slog.String("image_url", imageURL),
		slog.String("invoice_number", invoice.InvoiceNumber),
		slog.Int("items", len(invoice.Items)))

	return &Draft{ImageURL: imageURL, Invoice: invoice}, nil
}

// SubmitInvoice validates the (possibly edited) invoice JSON and inserts it
// with its image reference. Records are always created with edited=false.
func (s *InvoiceService) SubmitInvoice(ctx context.Context, imageURL string, invoiceJSON []byte) (*domain.StoredInvoiceRecord, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, invalidInput("submit_invoice", "image_url is required")
	}

	invoice, err := s.validator.ValidateJSON(invoiceJSON)
	if err != nil {
		s.logger.Warn("invoice.submit.invalid", slog.String("image_url", imageURL), slog.Any("error", err))
		return nil, err
	}

	record := domain.NewStoredInvoiceRecord(imageURL, *invoice)
	if err := s.repository.Insert(ctx, record); err != nil {
		s.logger.Error("invoice.submit.store_failed", slog.String("image_url", imageURL), slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("invoice.submit.ok",
		slog.String("image_url", imageURL),
		slog.String("invoice_number", invoice.InvoiceNumber))

	return record, nil
}

// ListInvoices returns every stored record; never nil on success
func (s *InvoiceService) ListInvoices(ctx context.Context) ([]domain.StoredInvoiceRecord, error) {
	records, err := s.repository.ListAll(ctx)
	if err != nil {
		s.logger.Error("invoice.list.failed", slog.Any("error", err))
		return nil, err
	}
	if records == nil {
		records = make([]domain.StoredInvoiceRecord, 0)
	}
	return records, nil
}
