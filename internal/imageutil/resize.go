package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	// Register decoders for formats commonly photographed or scanned
	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ResizeConfig holds configuration for downscaling the copy of an invoice
// image that is sent to a vision model
type ResizeConfig struct {
	MaxDimension int    // Maximum width or height; 0 disables resizing
	Quality      int    // JPEG quality 1-100 (default 85)
	OutputFormat string // "png", "jpeg" or "" to keep the source format
}

// DefaultConfig returns default resize configuration. Resizing is disabled
// until MaxDimension is set.
func DefaultConfig() *ResizeConfig {
	return &ResizeConfig{
		MaxDimension: 0,
		Quality:      85,
		OutputFormat: "",
	}
}

// ResizeImage downsizes an image whose longest side exceeds config.MaxDimension,
// keeping the aspect ratio. Images already within bounds are returned as-is,
// and so are all images when MaxDimension is 0.
// The returned MIME type describes the returned bytes.
func ResizeImage(imageData []byte, config *ResizeConfig) ([]byte, string, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if config.MaxDimension <= 0 {
		return imageData, DetectImageType(imageData), nil
	}

	// Decode the image
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Check if resizing is needed
	if width <= config.MaxDimension && height <= config.MaxDimension {
		return imageData, DetectImageType(imageData), nil
	}

	// Calculate new dimensions maintaining aspect ratio
	var newWidth, newHeight int
	if width > height {
		newWidth = config.MaxDimension
		newHeight = max(1, int(float64(height)*float64(config.MaxDimension)/float64(width)))
	} else {
		newHeight = config.MaxDimension
		newWidth = max(1, int(float64(width)*float64(config.MaxDimension)/float64(height)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))

	// CatmullRom keeps small print legible after downscaling
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	// Encode the resized image
	var buf bytes.Buffer
	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = format
	}

	quality := config.Quality
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	var mimeType string
	switch outputFormat {
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
		mimeType = "image/jpeg"
	default:
		// gif and webp sources are re-encoded as png
		err = png.Encode(&buf, dst)
		mimeType = "image/png"
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), mimeType, nil
}
