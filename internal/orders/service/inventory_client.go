// Package service holds the orders service's clients for remote collaborators.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/orders/domain"
)

const (
	maxResponseBytes      = 1 << 20
	insufficientStockCode = "insufficient_stock"
)

// HTTPInventoryClient calls the inventory API. Every call is bounded by the configured
// timeout and carries a bearer token and the W3C trace context.
type HTTPInventoryClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
}

// NewHTTPInventoryClient creates a new HTTPInventoryClient.
func NewHTTPInventoryClient(
	baseURL string,
	httpClient *http.Client,
	tokens TokenSource,
	timeout time.Duration,
) *HTTPInventoryClient {
	return &HTTPInventoryClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		timeout:    timeout,
	}
}

type productBody struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type stockBody struct {
	Quantity int64 `json:"quantity"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details struct {
		Available *int64 `json:"available"`
	} `json:"details"`
}

// GetProduct reads a product's quantity and price.
func (c *HTTPInventoryClient) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error) {
	const op = "get_product"

	status, body, err := c.do(ctx, http.MethodGet, "/v1/products/"+productID.String())
	if err != nil {
		return nil, &domain.RemoteCallError{Op: op, ProductID: productID, Err: err}
	}

	switch status {
	case http.StatusOK:
		var product productBody
		if err := json.Unmarshal(body, &product); err != nil {
			return nil, &domain.RemoteCallError{Op: op, ProductID: productID, StatusCode: status, Err: err}
		}
		return &domain.ProductSnapshot{
			ID:       productID,
			Name:     product.Name,
			Quantity: product.Quantity,
			Price:    product.Price,
		}, nil
	case http.StatusNotFound:
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	default:
		return nil, unexpected(op, productID, status, body)
	}
}

// Decrement takes qty units of the product and returns the remaining quantity.
func (c *HTTPInventoryClient) Decrement(ctx context.Context, productID uuid.UUID, qty int64) (int64, error) {
	return c.adjust(ctx, "decrement", productID, qty)
}

// Increment gives qty units of the product back and returns the new quantity.
func (c *HTTPInventoryClient) Increment(ctx context.Context, productID uuid.UUID, qty int64) (int64, error) {
	return c.adjust(ctx, "increment", productID, qty)
}

func (c *HTTPInventoryClient) adjust(ctx context.Context, op string, productID uuid.UUID, qty int64) (int64, error) {
	query := url.Values{"quantity": []string{strconv.FormatInt(qty, 10)}}
	path := fmt.Sprintf("/v1/products/%s/%s?%s", productID, op, query.Encode())

	status, body, err := c.do(ctx, http.MethodPost, path)
	if err != nil {
		return 0, &domain.RemoteCallError{Op: op, ProductID: productID, Err: err}
	}

	switch status {
	case http.StatusOK:
		var stock stockBody
		if err := json.Unmarshal(body, &stock); err != nil {
			return 0, &domain.RemoteCallError{Op: op, ProductID: productID, StatusCode: status, Err: err}
		}
		return stock.Quantity, nil
	case http.StatusNotFound:
		return 0, &domain.ProductNotFoundError{ProductID: productID}
	case http.StatusBadRequest:
		var decoded errorBody
		if json.Unmarshal(body, &decoded) == nil && decoded.Error == insufficientStockCode {
			available := int64(-1)
			if decoded.Details.Available != nil {
				available = *decoded.Details.Available
			}
			return 0, &domain.InsufficientStockError{ProductID: productID, Available: available, Requested: qty}
		}
		return 0, unexpected(op, productID, status, body)
	default:
		return 0, unexpected(op, productID, status, body)
	}
}

// do sends one request. A 401 invalidates the token and the request is retried once
// with a fresh one.
func (c *HTTPInventoryClient) do(ctx context.Context, method, path string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	for attempt := 0; ; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, nil, apperrors.Wrap(err, "failed to obtain inventory token")
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if err != nil {
			return 0, nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.tokens.Invalidate()
			continue
		}
		return resp.StatusCode, body, nil
	}
}

func unexpected(op string, productID uuid.UUID, status int, body []byte) error {
	var decoded errorBody
	var cause error
	if json.Unmarshal(body, &decoded) == nil && decoded.Message != "" {
		cause = apperrors.New(decoded.Message)
	}
	return &domain.RemoteCallError{Op: op, ProductID: productID, StatusCode: status, Err: cause}
}
