// Package identity models the signed-in user context the backend
// establishes. The manager never authenticates anyone; it only asks who
// the current user is.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity describes the signed-in user.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// Provider reports the current signed-in user. A nil Identity means no
// user is signed in.
type Provider interface {
	Current(ctx context.Context) *Identity
}

// Static is a Provider returning a fixed identity, or signed-out when nil.
type Static struct {
	Identity *Identity
}

// Current returns the fixed identity.
func (s Static) Current(_ context.Context) *Identity {
	return s.Identity
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in the context, or nil.
func FromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(contextKey{}).(*Identity); ok {
		return id
	}
	return nil
}

// ContextProvider is a Provider reading the identity the auth middleware
// stored in the request context.
type ContextProvider struct{}

// Current returns the identity from the context, or nil.
func (ContextProvider) Current(ctx context.Context) *Identity {
	return FromContext(ctx)
}
