package qrscan

import (
	"fmt"

	qrgen "github.com/skip2/go-qrcode"
)

// DefaultImageSize is the edge length in pixels used when a caller
// passes a non-positive size.
const DefaultImageSize = 256

// WritePNG renders text as a QR code PNG at path. Authenticator apps
// scan medium error-correction codes reliably at this density.
func WritePNG(text, path string, size int) error {
	if size <= 0 {
		size = DefaultImageSize
	}
	if err := qrgen.WriteFile(text, qrgen.Medium, size, path); err != nil {
		return fmt.Errorf("failed to write QR image: %w", err)
	}
	return nil
}

// EncodePNG renders text as an in-memory QR code PNG.
func EncodePNG(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	data, err := qrgen.Encode(text, qrgen.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR image: %w", err)
	}
	return data, nil
}
