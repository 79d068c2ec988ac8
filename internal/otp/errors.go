package otp

import "errors"

var (
	// ErrInvalidEncoding reports base32 secret text containing a
	// character outside the A-Z2-7 alphabet.
	ErrInvalidEncoding = errors.New("invalid base32 encoding")

	// ErrInvalidParameter reports a negative digit count or period.
	ErrInvalidParameter = errors.New("invalid totp parameter")

	// ErrEmptySecret reports a secret that decodes to zero key bytes.
	ErrEmptySecret = errors.New("secret decodes to no key material")
)
