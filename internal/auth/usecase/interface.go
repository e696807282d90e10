// Package usecase implements client registration, token issuance and bearer
// authentication for the inventory API.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/allisson/storefront/internal/auth/domain"
)

// ClientRepository defines persistence operations for clients.
type ClientRepository interface {
	Create(ctx context.Context, client *authDomain.Client) error
	// Get returns ErrClientNotFound when no client has the id.
	Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error)
}

// TokenRepository defines persistence operations for issued tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *authDomain.Token) error
	// GetByTokenHash returns ErrTokenNotFound when no token has the hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error)
}

// ClientUseCase registers clients.
type ClientUseCase interface {
	// Create generates a secret for a new client. The plain secret is only returned here.
	Create(ctx context.Context, input *authDomain.CreateClientInput) (*authDomain.CreateClientOutput, error)
}

// TokenUseCase exchanges client credentials for tokens and resolves tokens to clients.
type TokenUseCase interface {
	Issue(ctx context.Context, input *authDomain.IssueTokenInput) (*authDomain.IssueTokenOutput, error)
	Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error)
}
