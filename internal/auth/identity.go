package auth

import (
	"context"

	"github.com/adi-253/parley/backend/internal/models"
)

// Identity is who a request claims to be. It is either Unauthenticated or
// Authenticated; callers switch on the concrete type.
type Identity interface {
	isIdentity()
}

// Unauthenticated is the identity of a request without a valid token.
type Unauthenticated struct{}

// Authenticated is the identity of a request carrying a valid access token
// for an active user.
type Authenticated struct {
	UserID   string
	Username string
	Role     models.Role
}

func (Unauthenticated) isIdentity() {}
func (Authenticated) isIdentity()   {}

// Label returns the name written to the request log.
func Label(id Identity) string {
	switch v := id.(type) {
	case Authenticated:
		return v.Username
	case Unauthenticated:
		return "Anonymous"
	}
	return "Anonymous"
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or Unauthenticated.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok && id != nil {
		return id
	}
	return Unauthenticated{}
}

// Caller returns the authenticated identity in ctx, if any.
func Caller(ctx context.Context) (Authenticated, bool) {
	a, ok := FromContext(ctx).(Authenticated)
	return a, ok
}
