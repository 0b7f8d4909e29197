package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

// Recoverer converts a handler panic into the standard 500 envelope.
// http.ErrAbortHandler keeps its meaning and is re-raised.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				value := recover()
				if value == nil {
					return
				}
				if err, ok := value.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(value)
				}
				cause := fmt.Errorf("recovered panic: %v", value)
				ctx := logg.WithFields(r.Context(), map[string]any{
					"route": r.Method + " " + r.URL.Path,
					"stack": string(debug.Stack()),
				})
				logg.Error(ctx, "panic.recovered", cause)
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, cause, "unexpected failure"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
