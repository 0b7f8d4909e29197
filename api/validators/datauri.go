package validators

import (
	"encoding/base64"
	"strings"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

// DecodeDataURI splits a "data:<type>;base64,<payload>" string into its
// declared media type and decoded bytes.
func DecodeDataURI(value string) (string, []byte, error) {
	rest, isData := strings.CutPrefix(strings.TrimSpace(value), "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !isData || !ok {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "expected a data URI")
	}
	mediaType, encoded := strings.CutSuffix(meta, ";base64")
	if !encoded {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "data URI payload is not valid base64")
	}
	return mediaType, data, nil
}
