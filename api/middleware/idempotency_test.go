package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestIdempotentRouteSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    bool
	}{
		{"checkout", http.MethodPost, "/api/v1/checkout", true},
		{"order request", http.MethodPost, "/api/v1/orders", true},
		{"campaign", http.MethodPost, "/api/v1/campaigns", true},
		{"artwork upload", http.MethodPost, "/api/v1/session/artwork/{location}", true},
		{"artwork generate", http.MethodPost, "/api/v1/artwork/generate", true},
		{"transform put", http.MethodPut, "/api/v1/session/artwork/{location}/transform", false},
		{"session view", http.MethodGet, "/api/v1/session", false},
		{"quote", http.MethodPost, "/api/v1/quotes", false},
	}

	for _, tt := range tests {
		if got := idempotentRoute(tt.method, tt.pattern); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}

func TestIdempotencyMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("nothing should be stored without a key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, 7*24*time.Hour, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"foo":"bar"}`))
	req.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"foo":"bar"}`))
	replay.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
	for _, ttl := range store.ttls {
		if ttl != 7*24*time.Hour {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{"foo":"bar"}`))
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{"foo":"diff"}`))
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewareDoesNotStoreServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "retry-me")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected server errors to be retried, handler ran %d times", calls)
	}
}

func multipartBody(t *testing.T, boundary string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.SetBoundary(boundary); err != nil {
		t.Fatalf("set boundary: %v", err)
	}
	part, err := mw.CreateFormFile("artwork_front", "logo.png")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestIdempotencyMiddlewareIgnoresMultipartBoundary(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, boundary := range []string{"firstboundary123", "secondboundary456"} {
		body, ct := multipartBody(t, boundary)
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Idempotency-Key", "form")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
		}
	}
	if calls != 1 {
		t.Fatalf("expected replay for the same form, handler ran %d times", calls)
	}
}

func TestIdempotencyScopeIncludesSession(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, session := range []string{"session-a", "session-b"} {
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
		req = req.WithContext(WithSessionID(req.Context(), session))
		req.Header.Set("Idempotency-Key", "shared")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("keys must not collide across sessions, handler ran %d times", calls)
	}
}

func TestIdempotencyMiddlewareRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	var inner http.Handler
	nested := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nested++
		if nested == 1 {
			// a retry arrives while the first request is still running
			dup := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
			dup.Header.Set("Idempotency-Key", "slow")
			rec := httptest.NewRecorder()
			inner.ServeHTTP(rec, dup)
			if rec.Code != http.StatusConflict {
				t.Errorf("expected in-flight duplicate to get 409, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "in progress") {
				t.Errorf("expected in-progress message, got %s", rec.Body.String())
			}
		}
		w.WriteHeader(http.StatusCreated)
	}))
	inner = handler

	req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "slow")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if nested != 1 {
		t.Fatalf("duplicate must not reach the handler, ran %d times", nested)
	}
}

func TestIdempotencyMiddlewareMarksReplays(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i, want := range []string{"", "true"} {
		req := requestWithPattern(http.MethodPost, "/api/v1/campaigns", "/api/v1/campaigns", strings.NewReader(`{"name":"team"}`))
		req.Header.Set("Idempotency-Key", "campaign-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if got := rec.Header().Get("Idempotent-Replayed"); got != want {
			t.Fatalf("request %d: expected replay header %q got %q", i, want, got)
		}
	}
}

func TestIdempotencyMiddlewareReleasesKeyOnPanic(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "panic")
	func() {
		defer func() { _ = recover() }()
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}()
	if len(store.data) != 0 {
		t.Fatalf("expected claim to be released, store has %d keys", len(store.data))
	}
}
