package stripewebhook

import (
	"context"
	"testing"
	"time"
)

type memoryGuardStore struct {
	values map[string]any
	ttls   map[string]time.Duration
}

func newMemoryGuardStore() *memoryGuardStore {
	return &memoryGuardStore{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (m *memoryGuardStore) Get(_ context.Context, key string) (string, error) {
	v, _ := m.values[key].(string)
	return v, nil
}

func (m *memoryGuardStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryGuardStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryGuardStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestIdempotencyGuardMarksOnce(t *testing.T) {
	store := newMemoryGuardStore()
	guard, err := NewIdempotencyGuard(store, 0, "")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	dup, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil || dup {
		t.Fatalf("first delivery should not be a duplicate (dup=%v err=%v)", dup, err)
	}
	if store.ttls[GuardScope+":evt_1"] != defaultGuardTTL {
		t.Fatalf("expected default ttl, got %v", store.ttls[GuardScope+":evt_1"])
	}
	if dup, _ := guard.CheckAndMark(ctx, "evt_1"); !dup {
		t.Fatal("second delivery should be a duplicate")
	}

	if err := guard.Delete(ctx, "evt_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if dup, _ := guard.CheckAndMark(ctx, "evt_1"); dup {
		t.Fatal("deleted event should be processed again")
	}
}

func TestIdempotencyGuardRejectsBadInput(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, ""); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := NewIdempotencyGuard(newMemoryGuardStore(), -time.Second, ""); err == nil {
		t.Fatal("expected ttl error")
	}
	guard, _ := NewIdempotencyGuard(newMemoryGuardStore(), time.Hour, "custom")
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("expected empty event id error")
	}
}
