// Package otp implements the time-based one-time password algorithm
// (RFC 6238) over a lenient base32 secret codec. Codes are produced by
// HMAC-SHA1 dynamic truncation exactly as interoperable authenticator
// apps do.
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/otpkeep/otpkeep/internal/secure"
)

const (
	// DefaultDigits is the standard authenticator code width.
	DefaultDigits = 6

	// DefaultPeriod is the standard 30-second code validity window.
	DefaultPeriod = 30
)

// HMACFunc computes a keyed hash over message. The engine expects the
// 20-byte digest shape of HMAC-SHA1.
type HMACFunc func(key, message []byte) []byte

// Engine generates TOTP codes. The keyed-hash primitive is injected so
// callers (and tests) can substitute their own implementation.
type Engine struct {
	hmac HMACFunc
}

// NewEngine returns an Engine backed by crypto/hmac with SHA-1.
func NewEngine() *Engine {
	return &Engine{hmac: hmacSHA1}
}

// NewEngineWithHMAC returns an Engine using the given keyed-hash
// primitive in place of the default HMAC-SHA1.
func NewEngineWithHMAC(fn HMACFunc) *Engine {
	return &Engine{hmac: fn}
}

func hmacSHA1(key, message []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// GenerateOpts carries the per-code parameters. Zero values select the
// standard defaults: 6 digits, 30-second period, current wall-clock
// time. Negative digits or period are rejected.
type GenerateOpts struct {
	Digits int
	Period int
	Time   time.Time
}

// GenerateCode produces the decimal code for secret at the reference
// time, left-zero-padded to exactly opts.Digits characters.
//
// The counter is floor(unixMillis/1000/period), encoded as an 8-byte
// big-endian integer and run through HMAC-SHA1 dynamic truncation
// (RFC 4226 §5.3): the low nibble of the final digest byte selects a
// 4-byte window, whose top bit is masked off to form a non-negative
// 31-bit value, reduced modulo 10^digits.
func (e *Engine) GenerateCode(secret string, opts GenerateOpts) (string, error) {
	if opts.Digits == 0 {
		opts.Digits = DefaultDigits
	}
	if opts.Period == 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Digits < 0 {
		return "", fmt.Errorf("%w: digits must be positive, got %d", ErrInvalidParameter, opts.Digits)
	}
	if opts.Period < 0 {
		return "", fmt.Errorf("%w: period must be positive, got %d", ErrInvalidParameter, opts.Period)
	}
	if opts.Time.IsZero() {
		opts.Time = time.Now()
	}

	key, err := Decode(secret)
	if err != nil {
		return "", err
	}
	defer secure.ZeroBytes(key)
	if len(key) == 0 {
		return "", ErrEmptySecret
	}

	counter := opts.Time.UnixMilli() / 1000 / int64(opts.Period)

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	digest := e.hmac(key, msg[:])

	offset := digest[len(digest)-1] & 0x0f
	value := int64(digest[offset]&0x7f)<<24 |
		int64(digest[offset+1])<<16 |
		int64(digest[offset+2])<<8 |
		int64(digest[offset+3])

	code := value % pow10(opts.Digits)

	return fmt.Sprintf("%0*d", opts.Digits, code), nil
}

// ValidateSecret reports whether text is usable as an account secret:
// it must decode cleanly and yield at least one key byte.
func ValidateSecret(text string) error {
	key, err := Decode(text)
	if err != nil {
		return err
	}
	defer secure.ZeroBytes(key)
	if len(key) == 0 {
		return ErrEmptySecret
	}
	return nil
}

// pow10 returns 10^n capped at 10^10, which already exceeds the 31-bit
// truncated value so larger exponents cannot change the result.
func pow10(n int) int64 {
	if n > 10 {
		n = 10
	}
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

// SecondsRemaining reports how many seconds of the current step are
// left on the wall clock. The result is in [1, period]: at an exact
// step boundary a full period remains, never zero. A non-positive
// period falls back to the default.
func SecondsRemaining(period int) int {
	return SecondsRemainingAt(period, time.Now())
}

// SecondsRemainingAt is SecondsRemaining for an arbitrary reference
// time.
func SecondsRemainingAt(period int, t time.Time) int {
	if period <= 0 {
		period = DefaultPeriod
	}
	return period - int(t.Unix()%int64(period))
}

// FormatForDisplay splits a code at its midpoint into two groups
// separated by a single space, e.g. "123456" becomes "123 456". For
// odd lengths the first group takes the smaller half.
func FormatForDisplay(code string) string {
	if len(code) < 2 {
		return code
	}
	mid := len(code) / 2
	return code[:mid] + " " + code[mid:]
}
