package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters (scanner CR/LF suffixes, GS1 group
// separators), trims whitespace and caps the result at maxLen bytes without
// splitting a rune.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input))
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	cut := maxLen
	for cut > 0 && !utf8RuneStart(cleaned[cut]) {
		cut--
	}
	return strings.TrimSpace(cleaned[:cut])
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
