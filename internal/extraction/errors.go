package extraction

// ExtractionError represents an error that occurred while deriving an invoice from an image
type ExtractionError struct {
	Op  string // Operation that caused the error
	Err error  // Original error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return "extraction error: " + e.Op
	}
	return "extraction error: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Err
}
