package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
)

var (
	storefrontOrigins = []string{"https://teeforge.com", "https://www.teeforge.com"}
	localOrigins      = []string{"http://localhost:3000", "http://localhost:5173"}
)

// corsOrigins is the storefront plus TEEFORGE_CORS_ORIGINS; local dev
// servers are only allowed outside prod.
func corsOrigins(app config.AppConfig) []string {
	origins := slices.Clone(storefrontOrigins)
	if !app.IsProd() {
		origins = append(origins, localOrigins...)
	}
	for _, o := range app.AllowedOrigins() {
		if !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	return origins
}

// CORS applies the browser origin policy. Credentials are allowed so the
// wizard can send its session header from the storefront.
func CORS(app config.AppConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: corsOrigins(app),
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", sessionHeader, idempotencyHeader, "X-Requested-With"},
		ExposedHeaders:   []string{sessionHeader, requestIDHeader, replayedHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler
}
