// Package identifier canonicalizes iMessage handle identifiers (phone numbers
// and email addresses) into lookup keys.
package identifier

import "strings"

// phoneKeyDigits is the number of trailing digits kept by NormalizePhone.
// Keeping the national number collapses country-code and punctuation variants.
const phoneKeyDigits = 10

// NormalizePhone strips every non-ASCII-digit character and keeps the last
// ten digits. Returns "" when raw contains no digits.
func NormalizePhone(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) > phoneKeyDigits {
		digits = digits[len(digits)-phoneKeyDigits:]
	}
	return string(digits)
}

// NormalizeEmail lower-cases an email address. No other transformation is applied.
func NormalizeEmail(raw string) string {
	return strings.ToLower(raw)
}

// PhoneKeys returns the directory keys a phone number is stored under:
// the normalized form, the normalized form with a "+1" prefix, and the raw
// string. The first two are omitted when raw contains no digits.
func PhoneKeys(raw string) []string {
	n := NormalizePhone(raw)
	if n == "" {
		return []string{raw}
	}
	return []string{n, "+1" + n, raw}
}
