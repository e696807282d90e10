// Package domain defines the inventory entities: products with stock levels and the
// record of sale events already applied.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item and its on-hand quantity. Quantity never goes below
// zero and only changes through the repository's Decrement and Increment.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Quantity    int64
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProcessedOrder records that the sale event of an order has been applied.
// OrderID is unique.
type ProcessedOrder struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProcessedAt time.Time
}
