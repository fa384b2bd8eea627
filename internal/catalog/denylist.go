package catalog

import "strings"

// BlockedPatterns are lowercase substrings that must never be auto-populated.
// Containment is deliberately substring-based rather than token-based: it
// accepts false positives (a field named "author" contains "auth") in exchange
// for never filling a recognizable credential or financial field.
var BlockedPatterns = []string{
	"password", "pass", "pwd", "secret", "passwd",
	"ssn", "social_security", "socialsecurity", "social-security",
	"credit_card", "creditcard", "card_number", "cardnumber", "cc_number",
	"cvv", "cvc", "security_code", "securitycode", "card_security",
	"account_number", "accountnumber", "routing", "routing_number",
	"pin", "token", "auth", "api_key", "apikey",
	"bank_account", "bankaccount", "iban", "swift",
}

// IsBlocked reports whether a field identified by its name, id, type, and
// autocomplete attributes may never be filled. Fields of type password are
// always blocked regardless of the other attributes.
func IsBlocked(name, id, inputType, autocomplete string) bool {
	if strings.EqualFold(inputType, "password") {
		return true
	}
	combined := strings.ToLower(name + " " + id + " " + autocomplete)
	for _, pattern := range BlockedPatterns {
		if strings.Contains(combined, pattern) {
			return true
		}
	}
	return false
}

// BlockReason returns the human-readable reason a field is blocked, or an
// empty string when it is not.
func BlockReason(name, id, inputType, autocomplete string) string {
	if strings.EqualFold(inputType, "password") {
		return "password field"
	}
	combined := strings.ToLower(name + " " + id + " " + autocomplete)
	for _, pattern := range BlockedPatterns {
		if strings.Contains(combined, pattern) {
			return "matches blocked pattern: " + pattern
		}
	}
	return ""
}
