package middleware

import "context"

// scope is the caller identity resolved by the session and auth middleware.
// It is copied on every change so contexts never share mutable state.
type scope struct {
	userID    string
	sessionID string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, s scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

func UserIDFromContext(ctx context.Context) string { return scopeFrom(ctx).userID }

func SessionIDFromContext(ctx context.Context) string { return scopeFrom(ctx).sessionID }

func WithUserID(ctx context.Context, userID string) context.Context {
	s := scopeFrom(ctx)
	s.userID = userID
	return withScope(ctx, s)
}

// WithSessionID binds the X-Session-Id the request acts on.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	s := scopeFrom(ctx)
	s.sessionID = sessionID
	return withScope(ctx, s)
}
