package shared

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/authz"
)

type (
	sessionContextKey   struct{}
	principalContextKey struct{}
)

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithPrincipal stores the resolved caller in context.
func ContextWithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the caller, or nil when no caller middleware ran.
func PrincipalFromContext(ctx context.Context) authz.Principal {
	p, _ := ctx.Value(principalContextKey{}).(authz.Principal)
	return p
}
