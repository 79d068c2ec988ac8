package otp

import (
	"fmt"
	"strings"
	"unicode"
)

// Decode converts base32 text (RFC 4648 alphabet, A-Z and 2-7) into raw
// bytes. The input is normalized before decoding: all whitespace is
// stripped, letters are uppercased, and trailing '=' padding is dropped.
// An input that is empty after normalization decodes to an empty slice.
//
// Authenticator secrets arrive hand-typed or QR-scanned, often lowercase
// and space-grouped, so this codec is deliberately more lenient than
// encoding/base32's strict padded form.
func Decode(text string) ([]byte, error) {
	normalized := normalizeBase32(text)

	out := make([]byte, 0, len(normalized)*5/8)
	var buf uint32
	var bits uint

	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		v, ok := base32Value(c)
		if !ok {
			return nil, fmt.Errorf("%w: character %q", ErrInvalidEncoding, c)
		}
		buf = buf<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
		}
	}

	return out, nil
}

// normalizeBase32 strips whitespace, uppercases, and drops trailing
// padding. It never touches the caller's string.
func normalizeBase32(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ToUpper(s)
	return strings.TrimRight(s, "=")
}

func base32Value(c byte) (byte, bool) {
	switch {
	case c >= 'A' && c <= 'Z':
		return c - 'A', true
	case c >= '2' && c <= '7':
		return c - '2' + 26, true
	}
	return 0, false
}
