// Package qrscan reads provisioning QR codes from images and renders
// account URIs back into scannable PNGs.
package qrscan

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/otpkeep/otpkeep/internal/otpauth"
)

// DecodeFile extracts the text payload of the QR code in the image at
// path (PNG or JPEG).
func DecodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image for QR reading: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("no QR code found in image: %w", err)
	}

	return result.GetText(), nil
}

// ScanProvisioningURI reads a QR image and parses its payload as an
// otpauth provisioning URI.
func ScanProvisioningURI(path string) (otpauth.Params, error) {
	text, err := DecodeFile(path)
	if err != nil {
		return otpauth.Params{}, err
	}

	text = strings.TrimSpace(text)
	params, err := otpauth.Parse(text)
	if err != nil {
		return otpauth.Params{}, fmt.Errorf("QR code does not contain a provisioning URI: %w", err)
	}
	return params, nil
}
