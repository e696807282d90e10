package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/inventory/domain"
	"github.com/allisson/storefront/internal/metrics"
)

const metricsDomain = "inventory"

// productUseCaseWithMetrics decorates a ProductUseCase with business metrics.
type productUseCaseWithMetrics struct {
	next    ProductUseCase
	metrics metrics.BusinessMetrics
}

// NewProductUseCaseWithMetrics wraps useCase so every operation is counted and timed.
func NewProductUseCaseWithMetrics(useCase ProductUseCase, m metrics.BusinessMetrics) ProductUseCase {
	return &productUseCaseWithMetrics{next: useCase, metrics: m}
}

func (p *productUseCaseWithMetrics) Create(
	ctx context.Context,
	input CreateProductInput,
) (*domain.Product, error) {
	start := time.Now()
	product, err := p.next.Create(ctx, input)
	metrics.Observe(ctx, p.metrics, metricsDomain, "product_create", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	start := time.Now()
	product, err := p.next.Get(ctx, id)
	metrics.Observe(ctx, p.metrics, metricsDomain, "product_get", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	start := time.Now()
	products, err := p.next.List(ctx, offset, limit)
	metrics.Observe(ctx, p.metrics, metricsDomain, "product_list", start, err)
	return products, err
}

func (p *productUseCaseWithMetrics) Decrement(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	start := time.Now()
	remaining, err := p.next.Decrement(ctx, id, qty)
	metrics.Observe(ctx, p.metrics, metricsDomain, "stock_decrement", start, err)
	return remaining, err
}

func (p *productUseCaseWithMetrics) Increment(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	start := time.Now()
	remaining, err := p.next.Increment(ctx, id, qty)
	metrics.Observe(ctx, p.metrics, metricsDomain, "stock_increment", start, err)
	return remaining, err
}
