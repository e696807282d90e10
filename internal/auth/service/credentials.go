package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/storefront/internal/errors"
)

// credentialBytes is the entropy of every generated secret and token.
const credentialBytes = 32

func randomCredential() (string, error) {
	buf := make([]byte, credentialBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.Wrap(err, "failed to read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type argon2SecretService struct {
	hasher *pwdhash.PasswordHasher
}

// NewSecretService returns a SecretService backed by go-pwdhash with the moderate
// Argon2id policy.
func NewSecretService() (SecretService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}
	return &argon2SecretService{hasher: hasher}, nil
}

func (s *argon2SecretService) GenerateSecret() (string, string, error) {
	plain, err := randomCredential()
	if err != nil {
		return "", "", err
	}
	hashed, err := s.HashSecret(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hashed, nil
}

func (s *argon2SecretService) HashSecret(plainSecret string) (string, error) {
	hashed, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashed, nil
}

func (s *argon2SecretService) CompareSecret(plainSecret, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	return err == nil && ok
}

type sha256TokenService struct{}

// NewTokenService returns a TokenService whose lookup hash is hex(SHA-256(token)).
func NewTokenService() TokenService {
	return sha256TokenService{}
}

func (sha256TokenService) GenerateToken() (string, string, error) {
	plain, err := randomCredential()
	if err != nil {
		return "", "", err
	}
	return plain, sha256TokenService{}.HashToken(plain), nil
}

func (sha256TokenService) HashToken(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}
