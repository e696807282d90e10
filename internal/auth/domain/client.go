// Package domain defines the identities allowed to call the inventory API.
//
// A client authenticates with its id and secret and receives a short-lived opaque bearer
// token. Only the hash of the secret and of the token are ever stored.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a service identity, e.g. the orders service calling inventory.
type Client struct {
	ID        uuid.UUID
	Secret    string //nolint:gosec // hashed client secret (not plaintext)
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// CreateClientInput contains the parameters for creating a new client.
// The secret is generated and cannot be chosen by the caller.
type CreateClientInput struct {
	Name     string
	IsActive bool
}

// CreateClientOutput contains the result of creating a new client.
// PlainSecret is returned once and is never retrievable again.
type CreateClientOutput struct {
	ID          uuid.UUID
	PlainSecret string
}
