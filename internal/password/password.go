// Package password generates randomized passwords and scores their
// strength. Generation draws from crypto/rand with rejection sampling
// so every charset symbol is equally likely.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.<>?"
)

// DefaultLength is used when a preference leaves the length unset.
const DefaultLength = 16

// ErrNoCharset reports generation preferences with every character
// class disabled.
var ErrNoCharset = errors.New("no character classes enabled")

// Prefs are the persisted password-generation preferences.
type Prefs struct {
	Length  int  `json:"length"`
	Lower   bool `json:"lower"`
	Upper   bool `json:"upper"`
	Digits  bool `json:"digits"`
	Symbols bool `json:"symbols"`
}

// DefaultPrefs enables every class at the default length.
func DefaultPrefs() Prefs {
	return Prefs{Length: DefaultLength, Lower: true, Upper: true, Digits: true, Symbols: true}
}

// Generate produces a random password per prefs. A non-positive
// length falls back to the default.
func Generate(prefs Prefs) (string, error) {
	var charset string
	if prefs.Lower {
		charset += lowerChars
	}
	if prefs.Upper {
		charset += upperChars
	}
	if prefs.Digits {
		charset += digitChars
	}
	if prefs.Symbols {
		charset += symbolChars
	}
	if charset == "" {
		return "", ErrNoCharset
	}

	length := prefs.Length
	if length <= 0 {
		length = DefaultLength
	}

	out := make([]byte, length)
	for i := range out {
		idx, err := randomIndex(len(charset))
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		out[i] = charset[idx]
	}

	return string(out), nil
}

// randomIndex returns an unbiased random value in [0, n) by rejecting
// bytes past the largest multiple of n.
func randomIndex(n int) (int, error) {
	limit := 256 - 256%n
	var b [1]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, err
		}
		if int(b[0]) < limit {
			return int(b[0]) % n, nil
		}
	}
}

// Strength is a coarse password quality bucket.
type Strength int

const (
	VeryWeak Strength = iota
	Weak
	Fair
	Strong
	VeryStrong
)

func (s Strength) String() string {
	switch s {
	case VeryWeak:
		return "very weak"
	case Weak:
		return "weak"
	case Fair:
		return "fair"
	case Strong:
		return "strong"
	case VeryStrong:
		return "very strong"
	}
	return "unknown"
}

// Score rates a password by length and character-class variety. It is
// a heuristic for user feedback, not an entropy measurement.
func Score(password string) Strength {
	if password == "" {
		return VeryWeak
	}

	classes := 0
	if strings.ContainsAny(password, lowerChars) {
		classes++
	}
	if strings.ContainsAny(password, upperChars) {
		classes++
	}
	if strings.ContainsAny(password, digitChars) {
		classes++
	}
	if strings.ContainsAny(password, symbolChars) {
		classes++
	}

	points := classes
	switch {
	case len(password) >= 16:
		points += 3
	case len(password) >= 12:
		points += 2
	case len(password) >= 8:
		points++
	}

	switch {
	case points >= 7:
		return VeryStrong
	case points >= 5:
		return Strong
	case points >= 4:
		return Fair
	case points >= 2:
		return Weak
	}
	return VeryWeak
}
