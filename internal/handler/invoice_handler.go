package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoice-extraction-service/internal/middleware"
	"github.com/ridwanfathin/invoice-extraction-service/internal/model"
	"github.com/ridwanfathin/invoice-extraction-service/internal/service"
)

// submitSuccessMessage is returned when a reviewed invoice is stored
const submitSuccessMessage = "Invoice data saved successfully!"

// multipartOverhead allows for form boundaries and headers around the file
const multipartOverhead = 1 << 20

// Exporter produces a spreadsheet of the stored invoices
type Exporter interface {
	InvoicesXLSX(ctx context.Context) ([]byte, error)
}

// InvoiceHandler handles HTTP requests for the upload, review and submit workflow
type InvoiceHandler struct {
	service     service.InvoiceServicer
	exporter    Exporter
	maxFileSize int64
	logger      *slog.Logger
}

// NewInvoiceHandler creates a new invoice handler. maxFileSize <= 0 uses 10MB.
func NewInvoiceHandler(svc service.InvoiceServicer, exporter Exporter, maxFileSize int64, logger *slog.Logger) *InvoiceHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceHandler{
		service:     svc,
		exporter:    exporter,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// RegisterRoutes registers the handler's routes with the given router
func (h *InvoiceHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/extract-invoice/", h.ExtractInvoice)
	router.POST("/submit-invoice/", h.SubmitInvoice)
	router.GET("/get-data/", h.GetData)
	if h.exporter != nil {
		router.GET("/export-data/", h.ExportData)
	}
}

// ExtractInvoice handles an invoice image upload
// @Summary Extract an invoice
// @Description Store an uploaded invoice image and extract a draft invoice with the vision model. The draft is not saved.
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice image file"
// @Success 200 {object} model.ExtractInvoiceResponse "Draft invoice, or an error object in extracted_text"
// @Failure 400 {object} model.ErrorResponse "Missing or oversized file"
// @Router /extract-invoice/ [post]
func (h *InvoiceHandler) ExtractInvoice(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)

	// Get the file from the form
	file, header, err := getFormFile(c, "file")
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			respondBadRequest(c, ErrFileTooLarge)
			return
		}
		respondBadRequest(c, ErrFileUpload)
		return
	}
	defer file.Close()

	fileData, err := readFormFile(file, header, h.maxFileSize)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			respondBadRequest(c, ErrFileTooLarge)
			return
		}
		respondBadRequest(c, ErrFileRead)
		return
	}

	ctx := c.Request.Context()
	h.logger.Info("handler.extract.received",
		slog.String("request_id", middleware.RequestIDFromContext(ctx)),
		slog.String("filename", header.Filename),
		slog.Int("bytes", len(fileData)))

	draft, err := h.service.ExtractDraft(ctx, header.Filename, fileData)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondBadRequest(c, err.Error())
			return
		}
		respondProcessingError(c, err)
		return
	}

	if draft.Err != nil {
		respondOK(c, model.NewExtractFailure(draft.ImageURL, draft.Err.Error(), service.ErrorKind(draft.Err)))
		return
	}

	respondOK(c, model.NewExtractSuccess(draft.ImageURL, draft.Invoice))
}

// SubmitInvoice stores a reviewed invoice
// @Summary Submit a reviewed invoice
// @Description Validate the (possibly edited) invoice JSON and store it with its image reference. Stored records start with edited=false.
// @Tags invoices
// @Accept x-www-form-urlencoded
// @Accept multipart/form-data
// @Produce json
// @Param image_url formData string true "Image URL returned by /extract-invoice/"
// @Param extracted_text formData string true "JSON-encoded invoice"
// @Success 200 {object} model.MessageResponse "Invoice stored, or an error object"
// @Failure 400 {object} model.ErrorResponse "Missing form field"
// @Router /submit-invoice/ [post]
func (h *InvoiceHandler) SubmitInvoice(c *gin.Context) {
	imageURL, ok := getFormValue(c, "image_url")
	if !ok {
		respondBadRequest(c, ErrMissingImageURL)
		return
	}
	extractedText, ok := getFormValue(c, "extracted_text")
	if !ok {
		respondBadRequest(c, ErrMissingInvoice)
		return
	}

	if _, err := h.service.SubmitInvoice(c.Request.Context(), imageURL, []byte(extractedText)); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondBadRequest(c, err.Error())
			return
		}
		respondProcessingError(c, err)
		return
	}

	respondOK(c, model.MessageResponse{Message: submitSuccessMessage})
}

// GetData lists every stored invoice
// @Summary List stored invoices
// @Description Return every stored invoice record. Internal identifiers are not included.
// @Tags invoices
// @Produce json
// @Success 200 {object} model.InvoiceListResponse "Stored records, or an error object"
// @Router /get-data/ [get]
func (h *InvoiceHandler) GetData(c *gin.Context) {
	records, err := h.service.ListInvoices(c.Request.Context())
	if err != nil {
		respondProcessingError(c, err)
		return
	}

	respondOK(c, model.NewInvoiceList(records))
}

// ExportData downloads the stored invoices as a spreadsheet
// @Summary Export stored invoices
// @Description Download every stored invoice as an XLSX workbook with Invoices and Items sheets
// @Tags invoices
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "XLSX workbook"
// @Failure 500 {object} model.ErrorResponse "Store failure"
// @Router /export-data/ [get]
func (h *InvoiceHandler) ExportData(c *gin.Context) {
	data, err := h.exporter.InvoicesXLSX(c.Request.Context())
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err)
		return
	}

	filename := "invoices-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
