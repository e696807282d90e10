package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/allisson/storefront/internal/errors"
)

// Order error definitions. The validation errors all wrap ErrInvalidInput.
var (
	ErrOrderNotFound    = apperrors.Wrap(apperrors.ErrNotFound, "order not found")
	ErrEmptyOrder       = apperrors.Wrap(apperrors.ErrInvalidInput, "order must have at least one line")
	ErrInvalidQuantity  = apperrors.Wrap(apperrors.ErrInvalidInput, "line quantity must be greater than zero")
	ErrInvalidCustomer  = apperrors.Wrap(apperrors.ErrInvalidInput, "customer_id is required")
	ErrInvalidProductID = apperrors.Wrap(apperrors.ErrInvalidInput, "line product_id is required")
)

// ProductNotFoundError reports a line whose product inventory does not know.
type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return apperrors.ErrNotFound }

// ErrorCode is the machine-readable code written in HTTP error bodies.
func (e *ProductNotFoundError) ErrorCode() string { return "product_not_found" }

// ErrorDetails exposes the missing product.
func (e *ProductNotFoundError) ErrorDetails() map[string]any {
	return map[string]any{"product_id": e.ProductID.String()}
}

// InsufficientStockError reports a line asking for more than is available.
// Available is -1 when inventory did not say how much it has.
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

func (e *InsufficientStockError) Unwrap() error { return apperrors.ErrFailedPrecondition }

// ErrorCode is the machine-readable code written in HTTP error bodies.
func (e *InsufficientStockError) ErrorCode() string { return "insufficient_stock" }

// ErrorDetails exposes the stock levels to API clients.
func (e *InsufficientStockError) ErrorDetails() map[string]any {
	return map[string]any{
		"product_id": e.ProductID.String(),
		"available":  e.Available,
		"requested":  e.Requested,
	}
}

// RemoteCallError reports an inventory call that failed for a transport reason, a
// timeout or an unexpected response. StatusCode is 0 when no response was received.
type RemoteCallError struct {
	Op         string
	ProductID  uuid.UUID
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	msg := fmt.Sprintf("inventory %s for product %s failed", e.Op, e.ProductID)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteCallError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperrors.ErrUpstream}
	}
	return []error{apperrors.ErrUpstream, e.Err}
}

// CompensationFailedError reports that stock taken for an order could not be given
// back. It is terminal and needs operator attention. It has no Unwrap: it always maps
// to an internal error whatever Trigger and Cause are.
type CompensationFailedError struct {
	OrderID    uuid.UUID
	ProductIDs []uuid.UUID
	Trigger    error
	Cause      error
}

func (e *CompensationFailedError) Error() string {
	ids := make([]string, 0, len(e.ProductIDs))
	for _, id := range e.ProductIDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf(
		"compensation failed for order %s, products [%s]: %v (triggered by: %v)",
		e.OrderID, strings.Join(ids, ", "), e.Cause, e.Trigger,
	)
}

// PersistenceAfterCommitError reports that stock was decremented remotely but the
// order and its outbox message could not be stored. It is terminal and has no Unwrap.
type PersistenceAfterCommitError struct {
	OrderID uuid.UUID
	Cause   error
}

func (e *PersistenceAfterCommitError) Error() string {
	return fmt.Sprintf("order %s could not be persisted after stock was decremented: %v", e.OrderID, e.Cause)
}
