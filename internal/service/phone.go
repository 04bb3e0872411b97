package service

import "strings"

// NormalizePhone reduces a phone number to its digits and strips the leading
// country calling code, so "+221 77 531 25 71" and "775312571" resolve to the
// same client.
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if countryCode != "" && len(digits) > len(countryCode) && strings.HasPrefix(digits, countryCode) {
		digits = digits[len(countryCode):]
	}
	return digits
}
