package validators

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

const multipartMemory = 8 << 20

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// ParseMultipart parses a multipart body capped at maxBytes. Non-multipart
// requests are left untouched.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if !IsMultipart(r) {
		return nil
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "upload too large").
				WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormFiles returns the first file of every part named prefix+suffix, keyed
// by the suffix.
func FormFiles(r *http.Request, prefix string) map[string]*multipart.FileHeader {
	out := map[string]*multipart.FileHeader{}
	if r.MultipartForm == nil {
		return out
	}
	for name, headers := range r.MultipartForm.File {
		if !strings.HasPrefix(name, prefix) || len(headers) == 0 {
			continue
		}
		suffix := strings.TrimPrefix(name, prefix)
		if suffix == "" {
			continue
		}
		out[suffix] = headers[0]
	}
	return out
}

// FormValue returns a trimmed, length-capped form field.
func FormValue(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.FormValue(key), maxLen)
}
