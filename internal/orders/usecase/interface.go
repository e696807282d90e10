// Package usecase implements the order saga: lookups, sequential remote stock
// decrements with compensation, and the atomic write of the order with its outbox
// message.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/orders/domain"
	outboxDomain "github.com/allisson/storefront/internal/outbox/domain"
)

// OrderRepository persists orders together with their lines.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Order, error)
}

// OutboxWriter stores an outbox message in the caller's transaction.
type OutboxWriter interface {
	Create(ctx context.Context, msg *outboxDomain.OutboxMessage) error
}

// InventoryClient is the remote inventory API.
//
// Errors are *domain.ProductNotFoundError, *domain.InsufficientStockError or
// *domain.RemoteCallError for everything else.
type InventoryClient interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error)
	Decrement(ctx context.Context, productID uuid.UUID, qty int64) (int64, error)
	Increment(ctx context.Context, productID uuid.UUID, qty int64) (int64, error)
}

// OrderUseCase defines order operations.
type OrderUseCase interface {
	PlaceOrder(ctx context.Context, input *domain.PlaceOrderInput) (*domain.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Order, error)
}
