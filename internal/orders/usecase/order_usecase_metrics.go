package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/metrics"
	"github.com/allisson/storefront/internal/orders/domain"
)

const metricsDomain = "orders"

type orderUseCaseWithMetrics struct {
	next    OrderUseCase
	metrics metrics.BusinessMetrics
}

// NewOrderUseCaseWithMetrics wraps an OrderUseCase with business metrics.
func NewOrderUseCaseWithMetrics(useCase OrderUseCase, m metrics.BusinessMetrics) OrderUseCase {
	return &orderUseCaseWithMetrics{next: useCase, metrics: m}
}

func (o *orderUseCaseWithMetrics) PlaceOrder(
	ctx context.Context,
	input *domain.PlaceOrderInput,
) (*domain.Order, error) {
	start := time.Now()
	order, err := o.next.PlaceOrder(ctx, input)
	metrics.Observe(ctx, o.metrics, metricsDomain, "place_order", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	start := time.Now()
	order, err := o.next.Get(ctx, id)
	metrics.Observe(ctx, o.metrics, metricsDomain, "order_get", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	start := time.Now()
	orders, err := o.next.List(ctx, offset, limit)
	metrics.Observe(ctx, o.metrics, metricsDomain, "order_list", start, err)
	return orders, err
}
