package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/metrics"
)

func TestLoggingRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	reg := prometheus.NewRegistry()

	r := chi.NewRouter()
	r.Use(Logging(logg, metrics.NewHTTPMetrics(reg)))
	r.Get("/garments/{garmentId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/garments/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	out := buf.String()
	if !strings.Contains(out, `"route":"/garments/{garmentId}"`) || !strings.Contains(out, `"status":418`) {
		t.Fatalf("expected route and status in log, got %s", out)
	}
	if strings.Contains(out, "/health/live") {
		t.Fatalf("health-check requests should not be logged: %s", out)
	}
	n, err := testutil.GatherAndCount(reg, "http_requests_total")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 request series, got %d (%v)", n, err)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen = rec.Header().Get(requestIDHeader); seen != "req-123" {
		t.Fatalf("expected caller id echoed, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen = rec.Header().Get(requestIDHeader); len(seen) != 36 {
		t.Fatalf("expected generated uuid, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req 1\tforged")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen = rec.Header().Get(requestIDHeader); len(seen) != 36 {
		t.Fatalf("expected unprintable id to be replaced, got %q", seen)
	}
}
