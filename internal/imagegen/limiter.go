package imagegen

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const limiterScope = "imagegen"

type windowStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	WindowRemaining(ctx context.Context, scope string) (time.Duration, error)
}

// Limiter caps image operations per session inside a fixed window.
type Limiter struct {
	store  windowStore
	limit  int64
	window time.Duration
	logg   *logger.Logger
}

func NewLimiter(store windowStore, limit int, window time.Duration, logg *logger.Logger) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive")
	}
	return &Limiter{store: store, limit: int64(limit), window: window, logg: logg}, nil
}

// Allow counts one call for the session. Store failures let the call
// through so an unavailable Redis does not block generation.
func (l *Limiter) Allow(ctx context.Context, sessionID string) error {
	scope := limiterScope + ":" + sessionID
	ok, _, err := l.store.FixedWindowAllow(ctx, scope, l.limit, l.window)
	if err != nil {
		if l.logg != nil {
			l.logg.Warn(ctx, fmt.Sprintf("imagegen rate limit check failed: %v", err))
		}
		return nil
	}
	if ok {
		return nil
	}

	wait, err := l.store.WindowRemaining(ctx, scope)
	if err != nil || wait <= 0 {
		wait = l.window
	}
	return pkgerrors.New(pkgerrors.CodeRateLimit, "too many image requests for this session").WithRetryAfter(wait)
}
