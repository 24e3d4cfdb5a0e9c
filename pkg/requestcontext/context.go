// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets values, services read them. Keeping this package free of
// net/http lets services import only what they need. The actor (id + role)
// is always carried explicitly in context, never read from global state.
//
// Usage in services:
//
//	actorID := requestcontext.ActorID(ctx)
//	role := requestcontext.ActorRole(ctx)
//
// Usage in tests:
//
//	ctx = requestcontext.WithActor(ctx, actorID, "admin")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "atrium/pkg/domain"
)

type (
	actorIDKey     struct{}
	actorRoleKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// ActorID retrieves the authenticated actor's account ID from the context.
// Returns the zero (nil) UserID if not set.
func ActorID(ctx context.Context) id.UserID {
	if actorID, ok := ctx.Value(actorIDKey{}).(id.UserID); ok {
		return actorID
	}
	return id.UserID{}
}

// ActorRole retrieves the authenticated actor's role string from the context.
// Returns "" if not set.
func ActorRole(ctx context.Context) string {
	if role, ok := ctx.Value(actorRoleKey{}).(string); ok {
		return role
	}
	return ""
}

// WithActor injects the authenticated actor's identity into the context.
func WithActor(ctx context.Context, actorID id.UserID, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey{}, actorID)
	return context.WithValue(ctx, actorRoleKey{}, role)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
