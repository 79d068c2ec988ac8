package secure

import (
	"bytes"
	"testing"
)

func TestZeroBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "Normal data", data: []byte("sensitive secret")},
		{name: "Single byte", data: []byte{0xff}},
		{name: "Empty slice", data: []byte{}},
		{name: "Nil slice", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ZeroBytes(tt.data)
			for i, b := range tt.data {
				if b != 0 {
					t.Errorf("byte %d = %#x, want 0", i, b)
				}
			}
		})
	}
}

func TestZeroAll(t *testing.T) {
	a := []byte("first")
	b := []byte("second")

	ZeroAll(a, b, nil)

	for _, s := range [][]byte{a, b} {
		if !bytes.Equal(s, make([]byte, len(s))) {
			t.Errorf("slice not zeroed: %v", s)
		}
	}
}

func TestCopy(t *testing.T) {
	orig := []byte("to be wiped")
	cp := Copy(orig)

	if !bytes.Equal(orig, cp) {
		t.Fatalf("Copy() = %q, want %q", cp, orig)
	}

	ZeroBytes(orig)
	if bytes.Equal(orig, cp) {
		t.Error("copy shares backing array with original")
	}
	if string(cp) != "to be wiped" {
		t.Errorf("copy changed after wiping original: %q", cp)
	}
}
