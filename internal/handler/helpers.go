package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errFileTooLarge = errors.New("file too large")

// getFormFile retrieves a file from multipart form data
func getFormFile(c *gin.Context, fieldName string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile(fieldName)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, nil, errFileTooLarge
		}
		return nil, nil, fmt.Errorf("no %s provided", fieldName)
	}
	return file, header, nil
}

// readFormFile reads the whole uploaded file, refusing anything above maxSize
func readFormFile(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if header.Size > maxSize {
		return nil, errFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

// getFormValue retrieves a form field, treating absence as an error
func getFormValue(c *gin.Context, fieldName string) (string, bool) {
	value, ok := c.GetPostForm(fieldName)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
