package salesforce

import "strings"

// EscapeSOQL escapes a string literal for interpolation into a SOQL
// single-quoted string.
func EscapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// IsRecordID reports whether ref looks like a Salesforce record ID with the
// given key prefix (IDs are 15 or 18 alphanumeric characters).
func IsRecordID(ref, keyPrefix string) bool {
	if len(ref) != 15 && len(ref) != 18 {
		return false
	}
	if !strings.HasPrefix(strings.ToLower(ref), strings.ToLower(keyPrefix)) {
		return false
	}
	for _, r := range ref {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
