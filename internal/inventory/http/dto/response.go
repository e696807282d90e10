package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/storefront/internal/inventory/domain"
)

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MapProductToResponse converts a domain product to an API response.
func MapProductToResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Quantity:    product.Quantity,
		Price:       product.Price,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// ListProductsResponse represents a page of products.
type ListProductsResponse struct {
	Data []ProductResponse `json:"data"`
}

// MapProductsToListResponse converts domain products to a list response.
func MapProductsToListResponse(products []*domain.Product) ListProductsResponse {
	data := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		data = append(data, MapProductToResponse(product))
	}
	return ListProductsResponse{Data: data}
}

// StockResponse is returned by the decrement and increment endpoints.
type StockResponse struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
}

// NewStockResponse builds a StockResponse for the product's new quantity.
func NewStockResponse(id uuid.UUID, quantity int64) StockResponse {
	return StockResponse{ID: id.String(), Quantity: quantity}
}
