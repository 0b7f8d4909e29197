package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

var errNotInitialized = errors.New("redis client not initialized")

// Key families. Every key is "tf:<family>:<parts...>".
const (
	keyNamespace = "tf"

	familyIdempotency = "idempotency"
	familyRateLimit   = "rate_limit"
	familySession     = "order_session"
	familyGuard       = "guard"
	familyCache       = "cache"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	PTTL(context.Context, string) *redis.DurationCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client is the shared Redis handle for sessions, guards, caches and rate
// limits. A zero Client returns errNotInitialized from every command.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// IdempotencyStore is the subset used by the HTTP idempotency middleware and
// the webhook guard.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"redis_addr": opts.Addr,
			"redis_db":   opts.DB,
			"pool_size":  opts.PoolSize,
		}), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig starts from the URL when one is set; explicit pool and
// timeout settings fill whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	fillInt(&opts.DB, cfg.DB)
	fillInt(&opts.PoolSize, cfg.PoolSize)
	fillInt(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDuration(&opts.DialTimeout, cfg.DialTimeout)
	fillDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func fillDuration(dst *time.Duration, v time.Duration) {
	if *dst == 0 {
		*dst = v
	}
}

func (c *Client) cmd() (cmdable, error) {
	if c == nil || c.store == nil {
		return nil, errNotInitialized
	}
	return c.store, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	store, err := c.cmd()
	if err != nil {
		return err
	}
	return store.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil for missing keys; see IsNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	store, err := c.cmd()
	if err != nil {
		return "", err
	}
	return store.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	store, err := c.cmd()
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, value, ttl).Result()
}

// Expire refreshes the TTL on key. It reports false when the key is gone.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	store, err := c.cmd()
	if err != nil {
		return false, err
	}
	return store.Expire(ctx, key, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	store, err := c.cmd()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return store.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	store, err := c.cmd()
	if err != nil {
		return err
	}
	return store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// FixedWindowAllow counts one hit against scope and reports whether it is
// within limit. The window starts on the first hit. If the expiry cannot be
// set the counter is dropped so a scope is never limited forever.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	store, err := c.cmd()
	if err != nil {
		return false, 0, err
	}
	key := c.RateLimitKey(scope)
	count, err := store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 && window > 0 {
		if expErr := store.Expire(ctx, key, window).Err(); expErr != nil {
			_ = store.Del(ctx, key).Err()
			return false, count, fmt.Errorf("set rate limit window: %w", expErr)
		}
	}
	return count <= limit, count, nil
}

// WindowRemaining reports how long the current window for scope still runs.
// Missing keys and keys without expiry report zero.
func (c *Client) WindowRemaining(ctx context.Context, scope string) (time.Duration, error) {
	store, err := c.cmd()
	if err != nil {
		return 0, err
	}
	ttl, err := store.PTTL(ctx, c.RateLimitKey(scope)).Result()
	if err != nil {
		return 0, err
	}
	return max(ttl, 0), nil
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(familyIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(familyRateLimit, scope)
}

func (c *Client) OrderSessionKey(sessionID string) string {
	return buildKey(familySession, sessionID)
}

// GuardKey is used for short-lived in-flight markers such as the checkout
// submit guard and the cron leader lock.
func (c *Client) GuardKey(scope, id string) string {
	return buildKey(familyGuard, scope, id)
}

func (c *Client) CacheKey(parts ...string) string {
	return buildKey(familyCache, parts...)
}

// IsNil reports whether err signals a missing key.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func buildKey(family string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(family)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
