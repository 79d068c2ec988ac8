// Package otpauth parses and builds otpauth:// provisioning URIs, the
// format authenticator apps exchange through QR codes.
package otpauth

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the provisioning URI scheme.
const Scheme = "otpauth"

const (
	// DefaultAlgorithm is assumed when the URI omits one.
	DefaultAlgorithm = "SHA1"
	// DefaultDigits is assumed when the URI omits a digit count.
	DefaultDigits = 6
	// DefaultPeriod is assumed when the URI omits a period.
	DefaultPeriod = 30

	// placeholder stands in for a missing issuer or account label.
	placeholder = "Unknown"
)

var (
	// ErrInvalidURI reports a malformed or wrong-scheme provisioning
	// URI. Every parse failure surfaces as this one kind; the
	// underlying cause stays reachable through errors.Unwrap.
	ErrInvalidURI = errors.New("invalid otpauth uri")

	// ErrMissingSecret reports a Build request without a secret.
	ErrMissingSecret = errors.New("otpauth uri requires a secret")
)

// Params holds the account parameters carried by a provisioning URI.
type Params struct {
	Type      string
	Issuer    string
	Account   string
	Secret    string
	Algorithm string
	Digits    int
	Period    int
}

// Parse extracts account parameters from an otpauth:// URI.
//
// The host component passes through as Type unvalidated (totp and hotp
// are the expected values). The path, percent-decoded, splits at the
// first colon into issuer and account; a query issuer overrides the
// path-derived one. Missing issuer or account resolve to "Unknown".
func Parse(raw string) (Params, error) {
	p, err := parse(raw)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	return p, nil
}

func parse(raw string) (Params, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Params{}, err
	}
	if u.Scheme != Scheme {
		return Params{}, fmt.Errorf("unexpected scheme %q", u.Scheme)
	}

	p := Params{
		Type:      u.Host,
		Algorithm: DefaultAlgorithm,
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
	}

	// u.Path arrives percent-decoded.
	label := strings.TrimPrefix(u.Path, "/")
	if i := strings.Index(label, ":"); i >= 0 {
		p.Issuer = label[:i]
		p.Account = label[i+1:]
	} else {
		p.Account = label
	}

	q := u.Query()
	if issuer := q.Get("issuer"); issuer != "" {
		p.Issuer = issuer
	}
	p.Secret = q.Get("secret")
	if alg := q.Get("algorithm"); alg != "" {
		p.Algorithm = alg
	}
	if v := q.Get("digits"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, err
		}
		p.Digits = n
	}
	if v := q.Get("period"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, err
		}
		p.Period = n
	}

	if p.Issuer == "" {
		p.Issuer = placeholder
	}
	if p.Account == "" {
		p.Account = placeholder
	}

	return p, nil
}

// Build renders params as a provisioning URI, the inverse of Parse.
// Zero-valued optional fields take the standard defaults; the secret
// is required. The label is Issuer:Account, percent-escaped.
func Build(p Params) (string, error) {
	if p.Secret == "" {
		return "", ErrMissingSecret
	}
	if p.Type == "" {
		p.Type = "totp"
	}
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}

	label := url.PathEscape(p.Account)
	if p.Issuer != "" {
		label = url.PathEscape(p.Issuer) + ":" + label
	}

	q := url.Values{}
	q.Set("secret", p.Secret)
	if p.Issuer != "" {
		q.Set("issuer", p.Issuer)
	}
	q.Set("algorithm", p.Algorithm)
	q.Set("digits", strconv.Itoa(p.Digits))
	q.Set("period", strconv.Itoa(p.Period))

	return fmt.Sprintf("%s://%s/%s?%s", Scheme, p.Type, label, q.Encode()), nil
}
