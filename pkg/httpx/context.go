package httpx

import (
	"context"

	"github.com/aussiebroadwan/coach/pkg/jwtx"
)

// IdentityKind tags the outcome of request authentication.
type IdentityKind int

const (
	Anonymous IdentityKind = iota
	Authenticated
)

func (k IdentityKind) String() string {
	if k == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Identity is what the session middleware learned about the caller. Claims
// is only meaningful when Kind is Authenticated.
type Identity struct {
	Kind   IdentityKind
	Claims jwtx.Claims
}

// AccountID returns the token subject and whether the caller is authenticated.
func (id Identity) AccountID() (string, bool) {
	if id.Kind != Authenticated {
		return "", false
	}
	return id.Claims.Subject, true
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity attached by RequireSession or
// OptionalSession, or an anonymous identity when none was attached.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Identity{Kind: Anonymous}
}
