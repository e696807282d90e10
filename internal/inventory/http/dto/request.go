// Package dto provides data transfer objects for the inventory HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	"github.com/allisson/storefront/internal/inventory/usecase"
	customValidation "github.com/allisson/storefront/internal/validation"
)

// CreateProductRequest contains the parameters for creating a product.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Validate checks if the create product request is valid.
func (r *CreateProductRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Description, validation.Length(0, 2000)),
		validation.Field(&r.Quantity, validation.Min(int64(0))),
		validation.Field(&r.Price, customValidation.NonNegativeDecimal),
	)
}

// ToInput converts the request into a use case input.
func (r *CreateProductRequest) ToInput() usecase.CreateProductInput {
	return usecase.CreateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Quantity:    r.Quantity,
		Price:       r.Price,
	}
}
