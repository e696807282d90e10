// Package dto provides data transfer objects for the orders HTTP API.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/storefront/internal/orders/domain"
	customValidation "github.com/allisson/storefront/internal/validation"
)

// PlaceOrderLineRequest is one requested product and quantity.
type PlaceOrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// Validate checks if the line is valid.
func (r PlaceOrderLineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, customValidation.UUID),
		validation.Field(&r.Quantity, validation.Required, validation.Min(int64(1))),
	)
}

// PlaceOrderRequest contains the parameters for placing an order.
type PlaceOrderRequest struct {
	CustomerID string                  `json:"customer_id"`
	Lines      []PlaceOrderLineRequest `json:"lines"`
}

// Validate checks if the place order request is valid.
func (r *PlaceOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CustomerID,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Lines, validation.Required),
	)
}

// ToInput converts a validated request into the saga input.
func (r *PlaceOrderRequest) ToInput() *domain.PlaceOrderInput {
	lines := make([]domain.PlaceOrderLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, domain.PlaceOrderLine{
			ProductID: uuid.MustParse(line.ProductID),
			Quantity:  line.Quantity,
		})
	}
	return &domain.PlaceOrderInput{CustomerID: r.CustomerID, Lines: lines}
}
