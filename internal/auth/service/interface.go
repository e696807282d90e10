// Package service provides the credential primitives of the inventory API: client secrets
// hashed with Argon2id and opaque bearer tokens stored as SHA-256 digests.
package service

// SecretService generates and verifies client secrets.
type SecretService interface {
	// GenerateSecret returns a new random secret and its Argon2id hash.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)
	HashSecret(plainSecret string) (string, error)
	// CompareSecret runs in constant time with respect to the secret.
	CompareSecret(plainSecret, hashedSecret string) bool
}

// TokenService generates bearer tokens and derives their lookup hash.
type TokenService interface {
	GenerateToken() (plainToken string, tokenHash string, err error)
	HashToken(plainToken string) string
}
