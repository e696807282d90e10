package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/orders/domain"
)

// staticTokens hands out numbered tokens; every Invalidate moves to the next one.
type staticTokens struct {
	mu          sync.Mutex
	generation  int
	invalidated int
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "token-" + string(rune('a'+s.generation)), nil
}

func (s *staticTokens) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.invalidated++
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, handler http.Handler) (*HTTPInventoryClient, *staticTokens) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := &staticTokens{}
	return NewHTTPInventoryClient(server.URL, server.Client(), tokens, time.Second), tokens
}

func TestHTTPInventoryClient_GetProduct(t *testing.T) {
	productID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		var gotAuth, gotTraceparent string
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotTraceparent = r.Header.Get("traceparent")
			writeJSON(w, http.StatusOK, map[string]any{
				"id":       r.PathValue("id"),
				"name":     "Keyboard",
				"quantity": 7,
				"price":    "49.90",
			})
		})
		client, _ := newTestClient(t, mux)

		previous := otel.GetTextMapPropagator()
		otel.SetTextMapPropagator(propagation.TraceContext{})
		t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

		spanContext := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{0x01, 0x02, 0x03},
			SpanID:     trace.SpanID{0x04, 0x05},
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), spanContext)

		product, err := client.GetProduct(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, int64(7), product.Quantity)
		assert.True(t, decimal.RequireFromString("49.90").Equal(product.Price))
		assert.Equal(t, "Bearer token-a", gotAuth)
		assert.Contains(t, gotTraceparent, spanContext.TraceID().String())
	})

	t.Run("Not found", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found"})
		}))

		_, err := client.GetProduct(context.Background(), productID)

		var notFound *domain.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, productID, notFound.ProductID)
	})

	t.Run("Server error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "internal_error",
				"message": "An internal error occurred",
			})
		}))

		_, err := client.GetProduct(context.Background(), productID)

		var remote *domain.RemoteCallError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
		assert.Equal(t, "get_product", remote.Op)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		t.Cleanup(server.Close)
		t.Cleanup(func() { close(release) })
		client := NewHTTPInventoryClient(server.URL, server.Client(), &staticTokens{}, 50*time.Millisecond)

		_, err := client.GetProduct(context.Background(), productID)

		var remote *domain.RemoteCallError
		require.ErrorAs(t, err, &remote)
		assert.Zero(t, remote.StatusCode)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestHTTPInventoryClient_Decrement(t *testing.T) {
	productID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		var gotQuantity string
		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/products/{id}/decrement", func(w http.ResponseWriter, r *http.Request) {
			gotQuantity = r.URL.Query().Get("quantity")
			writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "quantity": 4})
		})
		client, _ := newTestClient(t, mux)

		remaining, err := client.Decrement(context.Background(), productID, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(4), remaining)
		assert.Equal(t, "3", gotQuantity)
	})

	t.Run("Insufficient stock with details", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "insufficient_stock",
				"message": "not enough stock",
				"details": map[string]any{"product_id": productID.String(), "available": 2, "requested": 3},
			})
		}))

		_, err := client.Decrement(context.Background(), productID, 3)

		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(2), insufficient.Available)
		assert.Equal(t, int64(3), insufficient.Requested)
	})

	t.Run("Insufficient stock without details", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "insufficient_stock"})
		}))

		_, err := client.Decrement(context.Background(), productID, 3)

		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(-1), insufficient.Available)
	})

	t.Run("Other bad request is a remote failure", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad_request", "message": "nope"})
		}))

		_, err := client.Decrement(context.Background(), productID, 3)

		var remote *domain.RemoteCallError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
		assert.ErrorContains(t, err, "nope")
	})

	t.Run("Retries once after 401 with a fresh token", func(t *testing.T) {
		var calls atomic.Int32
		client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if r.Header.Get("Authorization") != "Bearer token-b" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"quantity": 9})
		}))

		remaining, err := client.Decrement(context.Background(), productID, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(9), remaining)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 1, tokens.invalidated)
	})

	t.Run("Second 401 is a remote failure", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		}))

		_, err := client.Decrement(context.Background(), productID, 1)

		var remote *domain.RemoteCallError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestHTTPInventoryClient_Increment(t *testing.T) {
	productID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/products/{id}/increment", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "quantity": 12})
		})
		client, _ := newTestClient(t, mux)

		quantity, err := client.Increment(context.Background(), productID, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(12), quantity)
	})

	t.Run("Unavailable", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		_, err := client.Increment(context.Background(), productID, 2)

		var remote *domain.RemoteCallError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, "increment", remote.Op)
		assert.Equal(t, http.StatusServiceUnavailable, remote.StatusCode)
	})
}
