// Package reqctx carries the per-request execution context: a globally
// unique request id plus the owning session. The context lives only for the
// dynamic extent of one request and travels via context.Context, so two
// concurrent requests always see distinct values regardless of whether they
// run on separate goroutines or interleave cooperatively.
package reqctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context identifies one inbound request.
type Context struct {
	requestID string
	sessionID string
	createdAt time.Time
}

// New creates a request context with a fresh request id.
func New(sessionID string) Context {
	return Context{
		requestID: uuid.NewString(),
		sessionID: sessionID,
		createdAt: time.Now().UTC(),
	}
}

// RequestID returns the globally unique request identifier.
func (c *Context) RequestID() string { return c.requestID }

// SessionID returns the session the request belongs to.
func (c *Context) SessionID() string { return c.sessionID }

// CreatedAt returns the request start time.
func (c *Context) CreatedAt() time.Time { return c.createdAt }

type ctxKey struct{}

// WithContext stores the request context in ctx.
func WithContext(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext extracts the request context from ctx.
func FromContext(ctx context.Context) (Context, bool) {
	rc, ok := ctx.Value(ctxKey{}).(Context)
	return rc, ok
}
