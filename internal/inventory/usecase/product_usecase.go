package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/inventory/domain"
)

type productUseCase struct {
	productRepo ProductRepository
}

// NewProductUseCase creates a ProductUseCase backed by productRepo.
func NewProductUseCase(productRepo ProductRepository) ProductUseCase {
	return &productUseCase{productRepo: productRepo}
}

func (p *productUseCase) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        input.Name,
		Description: input.Description,
		Quantity:    input.Quantity,
		Price:       input.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := p.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (p *productUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return p.productRepo.Get(ctx, id)
}

func (p *productUseCase) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	return p.productRepo.List(ctx, offset, limit)
}

func (p *productUseCase) Decrement(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return p.productRepo.Decrement(ctx, id, qty)
}

func (p *productUseCase) Increment(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return p.productRepo.Increment(ctx, id, qty)
}
