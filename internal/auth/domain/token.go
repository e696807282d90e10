package domain

import (
	"time"

	"github.com/google/uuid"
)

// Token is an issued bearer token. TokenHash is the SHA-256 of the plain token.
type Token struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsValid reports whether the token can still authenticate at the given time.
func (t *Token) IsValid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// IssueTokenInput contains the client credentials exchanged for a token.
type IssueTokenInput struct {
	ClientID     uuid.UUID
	ClientSecret string //nolint:gosec // plaintext credential supplied by the caller
}

// IssueTokenOutput contains the plain token and its expiration.
type IssueTokenOutput struct {
	PlainToken string
	ExpiresAt  time.Time
}
