package qrscan

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "Provisioning uri",
			text: "otpauth://totp/Example:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Example",
		},
		{
			name: "Plain text",
			text: "hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "code.png")
			if err := WritePNG(tt.text, path, 256); err != nil {
				t.Fatalf("WritePNG: %v", err)
			}

			got, err := DecodeFile(path)
			if err != nil {
				t.Fatalf("DecodeFile: %v", err)
			}
			if got != tt.text {
				t.Errorf("round trip = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestEncodePNGIsValidPNG(t *testing.T) {
	data, err := EncodePNG("otpauth://totp/a?secret=S", 0)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("EncodePNG output is not a PNG: %v", err)
	}
}

func TestScanProvisioningURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.png")
	uri := "otpauth://totp/Example:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Example&digits=6&period=30"
	if err := WritePNG(uri, path, 256); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	params, err := ScanProvisioningURI(path)
	if err != nil {
		t.Fatalf("ScanProvisioningURI: %v", err)
	}
	if params.Issuer != "Example" || params.Account != "alice@example.com" {
		t.Errorf("params = %+v", params)
	}
	if params.Secret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("secret = %q", params.Secret)
	}
}

func TestScanProvisioningURIRejectsNonOTP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "link.png")
	if err := WritePNG("https://example.com", path, 256); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	if _, err := ScanProvisioningURI(path); err == nil {
		t.Error("ScanProvisioningURI accepted a non-otpauth payload")
	}
}

func TestDecodeFileMissing(t *testing.T) {
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("DecodeFile on missing file = nil error")
	}
}

func TestDecodeFileNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := DecodeFile(path); err == nil {
		t.Error("DecodeFile on garbage = nil error")
	}
}
