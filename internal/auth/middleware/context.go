package auth

import "context"

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKeyClaims).(*Claims)
	return c
}

// IsAdmin reports whether the request carries the admin role. Requests that
// never passed the JWT middleware carry no claims and are not admin.
func IsAdmin(ctx context.Context) bool {
	c := ClaimsFromContext(ctx)
	return c != nil && c.Role == RoleAdmin
}
