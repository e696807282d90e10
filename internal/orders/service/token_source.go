package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/allisson/storefront/internal/errors"
)

const defaultTokenSkew = 30 * time.Second

// TokenSource supplies bearer tokens for inventory API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// ClientCredentialsTokenSource exchanges a client id and secret for a token at
// POST /v1/token and caches it until shortly before it expires. Concurrent refreshes
// share one request.
type ClientCredentialsTokenSource struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	timeout      time.Duration
	skew         time.Duration
	now          func() time.Time

	group     singleflight.Group
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClientCredentialsTokenSource creates a token source. timeout bounds every token
// request.
func NewClientCredentialsTokenSource(
	baseURL, clientID, clientSecret string,
	httpClient *http.Client,
	timeout time.Duration,
) *ClientCredentialsTokenSource {
	return &ClientCredentialsTokenSource{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		timeout:      timeout,
		skew:         defaultTokenSkew,
		now:          time.Now,
	}
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"` //nolint:gosec // request credential
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// Token returns the cached token or fetches a new one.
func (s *ClientCredentialsTokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := s.cached(); ok {
		return token, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ch := s.group.DoChan("token", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		fetched, err := s.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.token = fetched.token
		s.expiresAt = fetched.expiresAt
		s.mu.Unlock()
		return fetched.token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call fetches a fresh one.
func (s *ClientCredentialsTokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

func (s *ClientCredentialsTokenSource) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || !s.now().Before(s.expiresAt.Add(-s.skew)) {
		return "", false
	}
	return s.token, true
}

func (s *ClientCredentialsTokenSource) fetch(ctx context.Context) (*cachedToken, error) {
	body, err := json.Marshal(tokenRequest{ClientID: s.clientID, ClientSecret: s.clientSecret})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/token", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "token request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("token request rejected with status %d", resp.StatusCode)
	}

	var decoded tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode token response")
	}
	if decoded.Token == "" {
		return nil, apperrors.New("token response has no token")
	}

	return &cachedToken{token: decoded.Token, expiresAt: decoded.ExpiresAt}, nil
}
