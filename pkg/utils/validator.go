package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// Indian GSTIN: state code, PAN, entity number, Z, checksum.
	gstRegex = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\- ]{6,14}$`)
)

// IsValidEmail validates an email address format
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// IsValidGST validates a GST registration number format
func IsValidGST(gst string) bool {
	return gstRegex.MatchString(strings.ToUpper(strings.TrimSpace(gst)))
}

// IsValidPhone validates a phone number format
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(phone))
}

// NormalizeGST uppercases and trims a GST number for storage and comparison.
func NormalizeGST(gst string) string {
	return strings.ToUpper(strings.TrimSpace(gst))
}
