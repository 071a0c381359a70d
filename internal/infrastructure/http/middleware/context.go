package middleware

import (
	"context"

	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	orgContextKey      contextKey = "org"
)

// Identity is the authenticated subject of an access token.
type Identity struct {
	UserID domain.UserID
	Email  string
}

// WithIdentity injects the authenticated subject into the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the subject set by AuthValidator.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// WithOrg injects the resolved org context.
func WithOrg(ctx context.Context, oc *domain.OrgContext) context.Context {
	return context.WithValue(ctx, orgContextKey, oc)
}

// OrgFromContext returns the org context set by OrgResolver, or nil.
func OrgFromContext(ctx context.Context) *domain.OrgContext {
	oc, _ := ctx.Value(orgContextKey).(*domain.OrgContext)
	return oc
}
