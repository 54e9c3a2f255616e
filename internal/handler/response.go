package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoice-extraction-service/internal/model"
	"github.com/ridwanfathin/invoice-extraction-service/internal/service"
)

// HTTP status codes as constants for consistency
const (
	StatusOK         = http.StatusOK
	StatusBadRequest = http.StatusBadRequest
)

// Common error messages
const (
	ErrFileUpload      = "No file provided"
	ErrFileTooLarge    = "File size exceeds limit"
	ErrFileRead        = "Failed to read file data"
	ErrMissingImageURL = "image_url is required"
	ErrMissingInvoice  = "extracted_text is required"
)

// respondWithError sends the error body. Processing failures use 200 so
// clients see the same contract as a successful call with an error payload.
func respondWithError(c *gin.Context, statusCode int, err error) {
	c.JSON(statusCode, model.ErrorResponse{
		Error: err.Error(),
		Kind:  service.ErrorKind(err),
	})
}

// respondProcessingError reports a failure in extraction, validation or storage
func respondProcessingError(c *gin.Context, err error) {
	respondWithError(c, StatusOK, err)
}

// respondBadRequest sends a 400 for a malformed request
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(StatusBadRequest, model.ErrorResponse{
		Error: message,
		Kind:  service.KindRequest,
	})
}

// respondOK sends a 200 OK response with data
func respondOK(c *gin.Context, data any) {
	c.JSON(StatusOK, data)
}
