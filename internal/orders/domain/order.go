// Package domain defines orders, their lines and the errors of the order saga.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusFailed   OrderStatus = "failed"
)

// Order is a customer purchase. Only approved orders are persisted.
type Order struct {
	ID         uuid.UUID
	CustomerID string
	Status     OrderStatus
	Total      decimal.Decimal
	Lines      []OrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderLine is one product of an order. UnitPrice is frozen when the order is placed.
type OrderLine struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Subtotal returns Quantity x UnitPrice.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// ComputeTotal returns the sum of the line subtotals.
func ComputeTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ProductSnapshot is the inventory view of a product at lookup time.
type ProductSnapshot struct {
	ID       uuid.UUID
	Name     string
	Quantity int64
	Price    decimal.Decimal
}

// PlaceOrderLine is a requested product and quantity.
type PlaceOrderLine struct {
	ProductID uuid.UUID
	Quantity  int64
}

// PlaceOrderInput is the request to place an order.
type PlaceOrderInput struct {
	CustomerID string
	Lines      []PlaceOrderLine
}

// Validate checks the input before any remote call is made.
func (in *PlaceOrderInput) Validate() error {
	if len(in.Lines) == 0 {
		return ErrEmptyOrder
	}
	if in.CustomerID == "" {
		return ErrInvalidCustomer
	}
	for _, line := range in.Lines {
		if line.ProductID == uuid.Nil {
			return ErrInvalidProductID
		}
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}
