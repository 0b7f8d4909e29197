package campaigns

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"
)

const maxSlugBase = 48

// slugBase lowercases name and joins its letters and digits with single dashes.
func slugBase(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
		if b.Len() >= maxSlugBase {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "campaign"
	}
	return out
}

// newSlug appends a short random suffix so equal names do not collide.
func newSlug(name string) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return slugBase(name) + "-" + hex.EncodeToString(buf)
}
