package service

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// emailFields are profile fields normalized as email addresses.
var emailFields = map[string]struct{}{
	"contact.email":          {},
	"employment.workEmail":   {},
	"emergencyContact.email": {},
}

// normalizeEmail lowercases and trims the provided email.
func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// normalizeFieldValue canonicalizes a value before it is stored. Email
// fields are lowercased; everything else only has whitespace cleaned up so
// user-entered casing survives.
func normalizeFieldValue(fieldPath, value string) string {
	if _, ok := emailFields[fieldPath]; ok {
		return normalizeEmail(value)
	}
	return sanitizeString(value)
}
