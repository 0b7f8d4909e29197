package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	stripewebhook "github.com/angelmondragon/teeforge-backend/internal/webhooks/stripe"
)

const testSecret = "whsec_test"

func TestStripeWebhook_SuccessAndIdempotent(t *testing.T) {
	payload, header := buildSignedEvent(t, stripe.EventTypePaymentIntentSucceeded)
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t), nil)

	rec := deliver(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	rec = deliver(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t, stripe.EventTypePaymentIntentSucceeded)
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t), nil)

	rec := deliver(handler, payload, "t=1,v1=invalid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t, stripe.EventTypePaymentIntentSucceeded)
	handler := StripeWebhook(&fakeStripeWebhookService{}, &fakeSigningClient{secret: testSecret}, newGuard(t), nil)

	rec := deliver(handler, payload, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without signature, got %d", rec.Code)
	}
}

func TestStripeWebhook_FailureReleasesGuard(t *testing.T) {
	payload, header := buildSignedEvent(t, stripe.EventTypePaymentIntentPaymentFailed)
	service := &fakeStripeWebhookService{err: errors.New("database down")}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSecret}, newGuard(t), nil)

	rec := deliver(handler, payload, header)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	service.err = nil
	rec = deliver(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected redelivery to succeed, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 2 {
		t.Fatalf("expected redelivery to be processed, call count %d", service.calls)
	}
}

func deliver(handler http.Handler, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func newGuard(t *testing.T) *stripewebhook.IdempotencyGuard {
	t.Helper()
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, stripewebhook.GuardScope)
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func buildSignedEvent(t *testing.T, eventType stripe.EventType) ([]byte, string) {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:       "pi_" + uuid.NewString(),
		Amount:   12500,
		Currency: stripe.CurrencyUSD,
		Status:   stripe.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{"pending_order_id": uuid.NewString()},
	}
	rawIntent, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal payment intent: %v", err)
	}
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       eventType,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: rawIntent},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, signatureHeader(payload, testSecret, time.Now().Unix())
}

func signatureHeader(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type fakeStripeWebhookService struct {
	calls int
	err   error
}

func (f *fakeStripeWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	f.calls++
	return f.err
}

type fakeSigningClient struct {
	secret string
}

func (c *fakeSigningClient) SigningSecret() string { return c.secret }

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: map[string]string{}}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return "teeforge:idempotency:" + scope + ":" + id
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
