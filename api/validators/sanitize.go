package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims, drops control characters, collapses runs of
// whitespace and caps the result at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(input) {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	out := b.String()
	if maxLen > 0 {
		if runes := []rune(out); len(runes) > maxLen {
			out = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return out
}
