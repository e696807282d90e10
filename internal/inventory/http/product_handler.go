// Package http provides the HTTP handlers of the inventory service.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/httputil"
	"github.com/allisson/storefront/internal/inventory/http/dto"
	"github.com/allisson/storefront/internal/inventory/usecase"
	customValidation "github.com/allisson/storefront/internal/validation"
)

// ProductHandler handles HTTP requests for products and stock adjustments.
type ProductHandler struct {
	productUseCase usecase.ProductUseCase
	logger         *slog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productUseCase usecase.ProductUseCase, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
		logger:         logger,
	}
}

// CreateHandler creates a product.
// POST /v1/products - Returns 201 Created with the product.
func (h *ProductHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	product, err := h.productUseCase.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapProductToResponse(product))
}

// GetHandler returns a single product.
// GET /v1/products/:id - Returns 200 OK or 404 Not Found.
func (h *ProductHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	product, err := h.productUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProductToResponse(product))
}

// ListHandler returns a page of products ordered by id.
// GET /v1/products?offset=0&limit=50 - Returns 200 OK.
func (h *ProductHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	products, err := h.productUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProductsToListResponse(products))
}

// DecrementHandler atomically subtracts stock.
// POST /v1/products/:id/decrement?quantity=N - Returns 200 OK with the new quantity,
// 400 Bad Request with insufficient_stock details, or 404 Not Found.
func (h *ProductHandler) DecrementHandler(c *gin.Context) {
	h.adjust(c, h.productUseCase.Decrement)
}

// IncrementHandler adds stock back.
// POST /v1/products/:id/increment?quantity=N - Returns 200 OK with the new quantity.
func (h *ProductHandler) IncrementHandler(c *gin.Context) {
	h.adjust(c, h.productUseCase.Increment)
}

func (h *ProductHandler) adjust(
	c *gin.Context,
	apply func(ctx context.Context, id uuid.UUID, qty int64) (int64, error),
) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	qty, err := httputil.ParsePositiveInt64Query(c, "quantity")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	quantity, err := apply(c.Request.Context(), id, qty)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.NewStockResponse(id, quantity))
}

func (h *ProductHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid product ID format: %w", err), h.logger)
		return uuid.Nil, false
	}
	return id, true
}
