package domain

import (
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/allisson/storefront/internal/errors"
)

// Inventory error definitions.
var (
	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = apperrors.Wrap(apperrors.ErrNotFound, "product not found")

	// ErrInvalidQuantity indicates a stock adjustment with a non-positive quantity.
	ErrInvalidQuantity = apperrors.Wrap(apperrors.ErrInvalidInput, "quantity must be greater than zero")

	// ErrOrderAlreadyProcessed indicates the sale event of an order was already applied.
	ErrOrderAlreadyProcessed = apperrors.Wrap(apperrors.ErrConflict, "order already processed")
)

// InsufficientStockError reports a decrement that would take stock below zero.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested,
	)
}

func (e *InsufficientStockError) Unwrap() error {
	return apperrors.ErrFailedPrecondition
}

// ErrorCode is the machine-readable code written in HTTP error bodies.
func (e *InsufficientStockError) ErrorCode() string {
	return "insufficient_stock"
}

// ErrorDetails exposes the stock levels to API clients.
func (e *InsufficientStockError) ErrorDetails() map[string]any {
	return map[string]any{
		"product_id": e.ProductID.String(),
		"available":  e.Available,
		"requested":  e.Requested,
	}
}
