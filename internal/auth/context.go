package auth

import "context"

type contextKey struct{}

// WithAdmin returns a context carrying the authenticated admin's email.
func WithAdmin(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKey{}, email)
}

// AdminEmail returns the authenticated admin's email, if any.
func AdminEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(contextKey{}).(string)
	return email, ok && email != ""
}
