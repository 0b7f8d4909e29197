package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	pkgAuth "github.com/angelmondragon/teeforge-backend/pkg/auth"
	"github.com/angelmondragon/teeforge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

// OptionalAuth attaches the signed-in shopper when a bearer token is sent.
// Anonymous requests pass through untouched; a token that is sent but cannot
// be verified is a 401 so clients notice stale credentials.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	verifier, verifierErr := pkgAuth.NewVerifier(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if strings.TrimSpace(header) == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			token, ok := bearerToken(header)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "expected a bearer token"))
				return
			}
			if verifierErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, verifierErr, "sign-in is not configured"))
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			userID := claims.UserID.String()
			ctx = logg.WithUserID(WithUserID(ctx, userID), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireUser rejects anonymous requests.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
