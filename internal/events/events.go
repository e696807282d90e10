// Package events defines the integration events exchanged between the orders and
// inventory services, together with their type tags and codecs.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/allisson/storefront/internal/errors"
)

// Type tags carried by outbox messages and channel messages.
const (
	TypeSaleCompleted = "sale.completed"
	TypeRaw           = "outbox.raw"
)

// ErrInvalidEvent indicates a payload that cannot be decoded into a known event.
var ErrInvalidEvent = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid event payload")

// SaleItem is a single product/quantity pair of a completed sale.
type SaleItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// SaleCompletedEvent is emitted once per approved order.
type SaleCompletedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	Items      []SaleItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Validate checks the structural invariants consumers rely on.
func (e *SaleCompletedEvent) Validate() error {
	if e.OrderID == uuid.Nil {
		return apperrors.Wrap(ErrInvalidEvent, "order_id is required")
	}
	if len(e.Items) == 0 {
		return apperrors.Wrap(ErrInvalidEvent, "items must not be empty")
	}
	for _, item := range e.Items {
		if item.ProductID == uuid.Nil {
			return apperrors.Wrap(ErrInvalidEvent, "item product_id is required")
		}
		if item.Quantity <= 0 {
			return apperrors.Wrapf(ErrInvalidEvent, "item %s has non-positive quantity", item.ProductID)
		}
	}
	return nil
}

// RawEnvelope wraps an outbox message whose type tag is not understood by the
// publisher, so it can still be delivered instead of being dropped.
type RawEnvelope struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// EncodeSaleCompleted serializes the event to JSON.
func EncodeSaleCompleted(event *SaleCompletedEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// DecodeSaleCompleted parses and validates a sale.completed payload.
func DecodeSaleCompleted(payload []byte) (*SaleCompletedEvent, error) {
	var event SaleCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, apperrors.Wrap(ErrInvalidEvent, err.Error())
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

// EncodeRaw serializes a raw envelope.
func EncodeRaw(envelope RawEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

// DecodeRaw parses a raw envelope.
func DecodeRaw(payload []byte) (*RawEnvelope, error) {
	var envelope RawEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, apperrors.Wrap(ErrInvalidEvent, err.Error())
	}
	return &envelope, nil
}
