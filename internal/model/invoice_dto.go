package model

import (
	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
)

// ErrorResponse is the body returned for any failed operation.
// Kind lets callers tell failure categories apart without parsing Error.
type ErrorResponse struct {
	Error string `json:"error" example:"store error: insert: connection refused"`
	Kind  string `json:"kind" example:"store"`
}

// ExtractInvoiceResponse is returned by the upload endpoint.
// ExtractedText holds either an *domain.Invoice or an ErrorResponse.
type ExtractInvoiceResponse struct {
	ImageURL      string `json:"image_url" example:"/static/0b9f3c1e-5d2a-4c1b-9c55-2f8f1f0f6d1e.png"`
	ExtractedText any    `json:"extracted_text" swaggertype:"object"`
}

// MessageResponse is returned by the submit endpoint on success
type MessageResponse struct {
	Message string `json:"message" example:"Invoice data saved successfully!"`
}

// InvoiceListResponse is returned by the listing endpoint
type InvoiceListResponse struct {
	Data []domain.StoredInvoiceRecord `json:"data"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// NewExtractSuccess builds the upload response for a successful extraction
func NewExtractSuccess(imageURL string, invoice *domain.Invoice) ExtractInvoiceResponse {
	return ExtractInvoiceResponse{
		ImageURL:      imageURL,
		ExtractedText: invoice,
	}
}

// NewExtractFailure builds the upload response for a failed extraction
func NewExtractFailure(imageURL, message, kind string) ExtractInvoiceResponse {
	return ExtractInvoiceResponse{
		ImageURL:      imageURL,
		ExtractedText: ErrorResponse{Error: message, Kind: kind},
	}
}

// NewInvoiceList wraps records for the listing response; never serializes data as null
func NewInvoiceList(records []domain.StoredInvoiceRecord) InvoiceListResponse {
	if records == nil {
		records = make([]domain.StoredInvoiceRecord, 0)
	}
	return InvoiceListResponse{Data: records}
}
