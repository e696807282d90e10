// Package usecase implements inventory business logic: product management, atomic
// stock adjustments and the idempotent consumer of sale events.
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/storefront/internal/events"
	"github.com/allisson/storefront/internal/inventory/domain"
)

// ProductRepository defines product persistence. Decrement must be a single
// conditional update: it either subtracts qty from a quantity >= qty or fails with
// InsufficientStockError / ErrProductNotFound without changing anything.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Product, error)
	Decrement(ctx context.Context, id uuid.UUID, qty int64) (int64, error)
	Increment(ctx context.Context, id uuid.UUID, qty int64) (int64, error)
}

// ProcessedOrderRepository records which orders' sale events have been applied.
type ProcessedOrderRepository interface {
	Exists(ctx context.Context, orderID uuid.UUID) (bool, error)
	Create(ctx context.Context, record *domain.ProcessedOrder) error
}

// CreateProductInput holds the fields of a new product.
type CreateProductInput struct {
	Name        string
	Description string
	Quantity    int64
	Price       decimal.Decimal
}

// ProductUseCase defines product operations exposed over HTTP.
type ProductUseCase interface {
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Product, error)
	Decrement(ctx context.Context, id uuid.UUID, qty int64) (int64, error)
	Increment(ctx context.Context, id uuid.UUID, qty int64) (int64, error)
}

// SaleEventHandler applies a sale.completed event.
type SaleEventHandler interface {
	HandleSaleCompleted(ctx context.Context, event *events.SaleCompletedEvent) error
}
