package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/teeforge-backend/pkg/redis"
)

// GuardScope namespaces Stripe event ids in the idempotency keyspace.
const GuardScope = "stripe_webhook"

// Stripe retries a failing endpoint for up to three days.
const defaultGuardTTL = 72 * time.Hour

// IdempotencyGuard remembers processed Stripe event ids so redeliveries are
// acknowledged without running the handler twice.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = defaultGuardTTL
	}
	if scope == "" {
		scope = GuardScope
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark reports whether eventID was already seen, marking it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	seenAt := time.Now().UTC().Format(time.RFC3339)
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, eventID), seenAt, g.ttl)
	if err != nil {
		return false, fmt.Errorf("mark stripe event %s: %w", eventID, err)
	}
	return !set, nil
}

// Delete forgets eventID so a failed delivery can be retried by Stripe.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, eventID))
}
