package artwork

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var designMimeTypes = []string{"image/png", "image/jpeg", "image/webp", "image/svg+xml", "application/pdf"}

var mockupMimeTypes = []string{"image/png", "image/jpeg", "image/webp"}

// detectMime sniffs the real content type from the file header. The client
// supplied type is ignored.
func detectMime(head []byte) string {
	mt := mimetype.Detect(head)
	value := strings.ToLower(mt.String())
	if i := strings.Index(value, ";"); i >= 0 {
		value = value[:i]
	}
	return value
}

func isAllowed(allowed []string, mimeType string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func allowedDescription(allowed []string) string {
	names := make([]string, 0, len(allowed))
	for _, a := range allowed {
		switch a {
		case "image/svg+xml":
			names = append(names, "SVG")
		case "application/pdf":
			names = append(names, "PDF")
		default:
			names = append(names, strings.ToUpper(strings.TrimPrefix(a, "image/")))
		}
	}
	return humanReadableList(names)
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

func objectKey(prefix, scope string, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("%s/%s/%s-%s", strings.Trim(prefix, "/"), scope, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}
