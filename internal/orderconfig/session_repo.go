package orderconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/redis"
)

type sessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	OrderSessionKey(sessionID string) string
}

// SessionRepository keeps session state in Redis with a sliding TTL.
type SessionRepository struct {
	store sessionStore
	ttl   time.Duration
}

func NewSessionRepository(store sessionStore, ttl time.Duration) (*SessionRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SessionRepository{store: store, ttl: ttl}, nil
}

// Load returns the session state and extends its expiry.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*State, error) {
	key := r.store.OrderSessionKey(sessionID)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}

	st := &State{}
	if err := json.Unmarshal([]byte(raw), st); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	st.normalize()

	if _, err := r.store.Expire(ctx, key, r.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend session ttl")
	}
	return st, nil
}

func (r *SessionRepository) Save(ctx context.Context, st *State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := r.store.Set(ctx, r.store.OrderSessionKey(st.SessionID), payload, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.OrderSessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session")
	}
	return nil
}
