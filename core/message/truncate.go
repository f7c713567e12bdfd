package message

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns the longest prefix of s whose UTF-8 encoding fits in max
// bytes. It never splits a multi-byte sequence; invalid bytes in s are
// dropped first.
func Truncate(s string, max int) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ellipsize caps s at max runes, replacing the tail with "..." when it is cut.
func ellipsize(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - 3
	if keep < 0 {
		keep = 0
	}
	r := []rune(s)
	return string(r[:keep]) + "..."
}

// clip cuts s to max runes without a marker.
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
