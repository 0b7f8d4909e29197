package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureSession(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionCopiesHeader(t *testing.T) {
	var got string
	handler := Session(nil)(captureSession(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Id", "  abc-123 ")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if got != "abc-123" {
		t.Fatalf("expected trimmed session id, got %q", got)
	}
}

func TestSessionRejectsOversizedHeader(t *testing.T) {
	var got string
	handler := Session(nil)(captureSession(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Id", strings.Repeat("a", maxSessionIDLen+1))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRequireSession(t *testing.T) {
	var got string
	handler := Session(nil)(RequireSession(nil)(captureSession(&got)))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Id", "s-1")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent || got != "s-1" {
		t.Fatalf("expected pass-through, got %d session=%q", resp.Code, got)
	}
}

func TestScopeKeepsSessionAndUserIndependent(t *testing.T) {
	base := WithSessionID(context.Background(), "sess-1")
	withUser := WithUserID(base, "user-1")

	if SessionIDFromContext(withUser) != "sess-1" || UserIDFromContext(withUser) != "user-1" {
		t.Fatalf("expected both ids on derived context")
	}
	if UserIDFromContext(base) != "" {
		t.Fatal("parent context must not see the user set on a child")
	}
}
