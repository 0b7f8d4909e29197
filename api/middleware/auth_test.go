package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/auth"
	"github.com/angelmondragon/teeforge-backend/pkg/config"
)

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer"}
}

func captureUser(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var user string
	handler := OptionalAuth(testJWT(), nil)(captureUser(&user))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if user != "" {
		t.Fatalf("expected no user, got %s", user)
	}
}

func TestOptionalAuthRejectsInvalidToken(t *testing.T) {
	var user string
	handler := OptionalAuth(testJWT(), nil)(captureUser(&user))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOptionalAuthAcceptsValidToken(t *testing.T) {
	cfg := testJWT()
	userID := uuid.New()
	token, err := auth.MintAccessToken(cfg, time.Now(), time.Hour, auth.AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var user string
	handler := OptionalAuth(cfg, nil)(captureUser(&user))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if user != userID.String() {
		t.Fatalf("expected user %s got %s", userID, user)
	}
}

func TestRequireUser(t *testing.T) {
	var user string
	handler := RequireUser(nil)(captureUser(&user))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "u-1"))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || user != "u-1" {
		t.Fatalf("expected pass-through, got %d user=%q", resp.Code, user)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc ", "abc", true},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		token, ok := bearerToken(tc.header)
		if token != tc.token || ok != tc.ok {
			t.Fatalf("%q: expected (%q,%v) got (%q,%v)", tc.header, tc.token, tc.ok, token, ok)
		}
	}
}

func TestOptionalAuthReportsExpiredToken(t *testing.T) {
	cfg := testJWT()
	token, err := auth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Minute, auth.AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	var user string
	handler := OptionalAuth(cfg, nil)(captureUser(&user))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "token expired") {
		t.Fatalf("expected expiry message, got %s", resp.Body.String())
	}
}
