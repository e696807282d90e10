package http

import (
	"context"

	authDomain "github.com/allisson/storefront/internal/auth/domain"
)

type clientKey struct{}

// WithClient stores the authenticated client in the context.
func WithClient(ctx context.Context, client *authDomain.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// GetClient returns the client stored by AuthenticationMiddleware, if any.
func GetClient(ctx context.Context) (*authDomain.Client, bool) {
	client, ok := ctx.Value(clientKey{}).(*authDomain.Client)
	return client, ok
}
