package dto

import (
	"time"
)

// IssueTokenResponse contains the issued token. The token is only returned once.
type IssueTokenResponse struct {
	Token     string    `json:"token"` //nolint:gosec // returned once on issuance
	ExpiresAt time.Time `json:"expires_at"`
}
