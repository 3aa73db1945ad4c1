// Package isbn normalizes and validates International Standard Book Numbers.
package isbn

import (
	"strings"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
)

// Normalize strips hyphens and spaces from an ISBN.
func Normalize(isbn string) string {
	normalized := strings.ReplaceAll(isbn, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	return strings.TrimSpace(normalized)
}

// NormalizeAndValidate normalizes the input and verifies that it is a
// plausible ISBN-10 or ISBN-13, including the check digit. Returns a
// MalformedISBNError for anything else.
func NormalizeAndValidate(raw string) (string, error) {
	normalized := Normalize(raw)
	switch len(normalized) {
	case 10:
		if !validISBN10(normalized) {
			return "", apierr.NewMalformedISBNError(raw)
		}
	case 13:
		if !validISBN13(normalized) {
			return "", apierr.NewMalformedISBNError(raw)
		}
	default:
		return "", apierr.NewMalformedISBNError(raw)
	}
	return normalized, nil
}

func validISBN10(s string) bool {
	sum := 0
	for i, r := range s {
		var v int
		switch {
		case r >= '0' && r <= '9':
			v = int(r - '0')
		case (r == 'X' || r == 'x') && i == 9:
			v = 10
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0
	for i, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		v := int(r - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}
