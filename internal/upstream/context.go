package upstream

import (
	"context"

	"github.com/noah-isme/bus-console-api/internal/models"
)

type (
	roleKey  struct{}
	tokenKey struct{}
	scopeKey struct{}
)

// WithRole selects the /admin or /operator namespace for calls made with ctx.
func WithRole(ctx context.Context, role models.ConsoleRole) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFrom returns the role stored by WithRole.
func RoleFrom(ctx context.Context) (models.ConsoleRole, bool) {
	role, ok := ctx.Value(roleKey{}).(models.ConsoleRole)
	return role, ok && role != ""
}

// WithAuthToken forwards the dashboard's bearer token to the upstream.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// AuthTokenFrom returns the token stored by WithAuthToken.
func AuthTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// WithScope ties calls to one console session so they can be cancelled together.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the session scope stored by WithScope.
func ScopeFrom(ctx context.Context) string {
	scope, _ := ctx.Value(scopeKey{}).(string)
	return scope
}
