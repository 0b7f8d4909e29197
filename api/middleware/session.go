package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const (
	sessionHeader   = "X-Session-Id"
	maxSessionIDLen = 64
)

// Session copies the X-Session-Id header into the request context. Requests
// without the header pass through; handlers that need a session use
// RequireSession.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(sessionHeader))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(id) > maxSessionIDLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is too long"))
				return
			}
			ctx := WithSessionID(r.Context(), id)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that carry no session id.
func RequireSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, sessionHeader+" header required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionHeader echoes the session id back to the client.
func SetSessionHeader(w http.ResponseWriter, sessionID string) {
	w.Header().Set(sessionHeader, sessionID)
}
