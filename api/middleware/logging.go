package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/metrics"
)

// quietRoutes are counted but never logged.
var quietRoutes = map[string]struct{}{
	"/health/live":  {},
	"/health/ready": {},
	"/metrics":      {},
}

// Logging emits one access line and one metric sample per request. Metrics
// are labelled by chi route pattern so path parameters do not explode
// cardinality.
func Logging(logg *logger.Logger, httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			sw := &statusRecorder{ResponseWriter: w}
			started := time.Now()
			next.ServeHTTP(sw, r.WithContext(ctx))
			elapsed := time.Since(started)

			var route string
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			status := sw.code()
			httpMetrics.Observe(r.Method, route, status, elapsed)
			if _, quiet := quietRoutes[route]; quiet {
				return
			}

			ctx = logg.WithFields(ctx, map[string]any{
				"route":       route,
				"status":      status,
				"bytes":       sw.written,
				"duration_ms": elapsed.Milliseconds(),
			})
			if status >= http.StatusInternalServerError {
				logg.Warn(ctx, "request.complete")
				return
			}
			logg.Info(ctx, "request.complete")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.written += n
	return n, err
}

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
