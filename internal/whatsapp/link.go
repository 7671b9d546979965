// Package whatsapp builds click-to-chat links for WhatsApp numbers.
package whatsapp

import (
	"net/url"

	"qr_generator_client/platform/phone"
)

const linkBase = "https://wa.me/"

// DeepLink returns the wa.me URL that opens a chat with number and the
// message pre-filled. The number is reduced to digits without the plus sign.
func DeepLink(number, message string) string {
	link := linkBase + phone.WhatsAppDigits(number)
	if message == "" {
		return link
	}
	return link + "?text=" + url.QueryEscape(message)
}

// Number extracts the number from a wa.me link, with a leading plus.
// It returns false for anything that is not a wa.me link.
func Number(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil || u.Host != "wa.me" {
		return "", false
	}
	digits := u.Path
	if len(digits) > 0 && digits[0] == '/' {
		digits = digits[1:]
	}
	if digits == "" {
		return "", false
	}
	return "+" + digits, true
}
