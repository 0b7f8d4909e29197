package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const contentTypeJSON = "application/json"

var errUnknown = errors.New("unknown error")

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError renders err as the standard error envelope. Untyped errors become
// CodeInternal. Client errors keep their own message; server errors only show
// the code's public message and are logged with a debug dump.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errUnknown
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	apiErr := types.APIError{
		Code:      string(typed.Code()),
		Message:   publicMessage(typed, meta),
		RequestID: logger.RequestIDFrom(ctx),
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}
	if wait := typed.RetryAfter(); wait > 0 && typed.Code() == pkgerrors.CodeRateLimit {
		w.Header().Set("Retry-After", strconv.Itoa(pkgerrors.RetryAfterSeconds(wait)))
	}

	if meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "request.error", err)
	} else {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"error":      typed.Message(),
			"error_code": apiErr.Code,
		}), "request.rejected")
	}

	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: apiErr})
}

func publicMessage(typed *pkgerrors.Error, meta pkgerrors.Metadata) string {
	if meta.HTTPStatus < http.StatusInternalServerError && typed.Message() != "" {
		return typed.Message()
	}
	return meta.PublicMessage
}

// writeJSON encodes before touching the response so an encoding failure can
// still produce a clean 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
