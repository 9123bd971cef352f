package utils

import "strings"

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DigitsOnly strips everything but 0-9 from a string.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastNDigits returns the trailing n digits of a phone number with all
// formatting stripped. Fewer than n digits returns whatever is there.
func LastNDigits(s string, n int) string {
	digits := DigitsOnly(s)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}
