package util

import "strings"

// SanitizePostgresText strips NUL bytes and invalid UTF-8 sequences.
// Captions and upstream error strings come from external APIs and go into
// postgres text columns, which reject both.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
