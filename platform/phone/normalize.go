// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	// CountryPrefix is prepended to bare 10-digit national numbers.
	CountryPrefix = "+52"
	countryCode   = "52"
	nationalLen   = 10
	withCodeLen   = 12
)

var (
	nonDialableRegex = regexp.MustCompile(`[^\d+]`)
	whatsAppRegex    = regexp.MustCompile(`^\+\d{10,15}$`)
)

// Format strips everything except digits and '+', then adds a country prefix
// when the number does not already carry one. It never fails; the result may
// still be invalid.
func Format(input string) string {
	cleaned := nonDialableRegex.ReplaceAllString(input, "")

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	switch {
	case len(cleaned) == nationalLen:
		return CountryPrefix + cleaned
	case len(cleaned) == withCodeLen && strings.HasPrefix(cleaned, countryCode):
		return "+" + cleaned
	default:
		// Fallback for any other length; intent for non-Mexican numbers is unknown.
		return "+" + cleaned
	}
}

// ValidWhatsApp reports whether input, once formatted, is '+' followed by 10 to 15 digits.
func ValidWhatsApp(input string) bool {
	return whatsAppRegex.MatchString(Format(input))
}

// Region returns the ISO region for a formatted number, if phonenumbers can resolve it.
func Region(number string) (string, bool) {
	parsed, err := phonenumbers.Parse(Format(number), "")
	if err != nil {
		return "", false
	}
	region := phonenumbers.GetRegionCodeForNumber(parsed)
	if region == "" || region == "ZZ" {
		return "", false
	}
	return region, true
}

// Plausible reports whether phonenumbers considers the formatted number valid.
// It is advisory only and never used to reject input.
func Plausible(number string) bool {
	parsed, err := phonenumbers.Parse(Format(number), "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}

// WhatsAppDigits returns the digits-only form used in wa.me links.
// Bare 10-digit numbers get the country code, the same way the backend builds links.
func WhatsAppDigits(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == nationalLen && !strings.HasPrefix(digits, countryCode) {
		return countryCode + digits
	}
	return digits
}
