package identity

import "strings"

// CanonicalAddress normalizes a WhatsApp sender into the E.164-style form
// used as the identity key ("+" followed by digits). Accepts either a bare
// phone number or a JID user part.
func CanonicalAddress(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if at := strings.IndexByte(trimmed, '@'); at >= 0 {
		trimmed = trimmed[:at]
	}
	trimmed = strings.TrimPrefix(trimmed, "+")
	if trimmed == "" {
		return ""
	}
	return "+" + trimmed
}
