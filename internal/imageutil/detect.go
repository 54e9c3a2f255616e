package imageutil

import (
	"net/http"
	"strings"
)

// DetectImageType sniffs the MIME type of raw image bytes.
// It returns "" when the bytes are empty or not a recognized image.
func DetectImageType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return ""
	}
	return mimeType
}

// ExtensionFor returns the file extension conventionally used for a MIME type
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ""
	}
}
