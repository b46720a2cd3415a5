// Package gtin validates GTIN/EAN-13 trade item numbers.
package gtin

import (
	"strings"

	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

// Length is the number of digits in a GTIN/EAN-13 code.
const Length = 13

// Normalize strips every non-digit character from code.
func Normalize(code string) string {
	var b strings.Builder
	for _, ch := range code {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// Validate checks that code is a well-formed GTIN/EAN-13: exactly 13 digits
// after normalization, with a valid mod-10 check digit. Digits at even
// positions (0-based) weigh 1, odd positions weigh 3, over the first 12
// digits; the expected check digit is (10 - sum mod 10) mod 10.
func Validate(code string) error {
	s := Normalize(code)
	if len(s) != Length {
		return errors.InvalidFormat("GTIN/EAN-13 must have 13 digits")
	}

	sum := 0
	for i := 0; i < Length-1; i++ {
		d := int(s[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}

	check := (10 - sum%10) % 10
	if check != int(s[Length-1]-'0') {
		return errors.ChecksumMismatch("GTIN/EAN-13 check digit is invalid")
	}

	return nil
}
