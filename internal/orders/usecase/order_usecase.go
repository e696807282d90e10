package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/allisson/storefront/internal/database"
	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/events"
	"github.com/allisson/storefront/internal/metrics"
	"github.com/allisson/storefront/internal/orders/domain"
	outboxDomain "github.com/allisson/storefront/internal/outbox/domain"
)

type orderUseCase struct {
	txManager  database.TxManager
	orderRepo  OrderRepository
	outbox     OutboxWriter
	inventory  InventoryClient
	metrics    metrics.BusinessMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
	newOrderID func() uuid.UUID
}

// NewOrderUseCase creates the order saga coordinator.
func NewOrderUseCase(
	txManager database.TxManager,
	orderRepo OrderRepository,
	outbox OutboxWriter,
	inventory InventoryClient,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) OrderUseCase {
	return &orderUseCase{
		txManager:  txManager,
		orderRepo:  orderRepo,
		outbox:     outbox,
		inventory:  inventory,
		metrics:    businessMetrics,
		tracer:     otel.Tracer("github.com/allisson/storefront/internal/orders"),
		logger:     logger,
		now:        time.Now,
		newOrderID: func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
}

// PlaceOrder runs the saga. Lookups honor ctx; once the first decrement is issued the
// remaining steps run detached from ctx cancellation so the saga always reaches a
// terminal state (approved, compensated or a terminal error).
func (u *orderUseCase) PlaceOrder(ctx context.Context, input *domain.PlaceOrderInput) (*domain.Order, error) {
	ctx, span := u.tracer.Start(ctx, "orders.place_order",
		trace.WithAttributes(attribute.Int("order.lines", len(input.Lines))))
	defer span.End()

	order, err := u.placeOrder(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	return order, nil
}

func (u *orderUseCase) placeOrder(ctx context.Context, input *domain.PlaceOrderInput) (*domain.Order, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	order, err := u.buildOrder(ctx, input)
	if err != nil {
		return nil, err
	}

	sagaCtx := context.WithoutCancel(ctx)

	if err := u.decrementAll(sagaCtx, order); err != nil {
		return nil, err
	}

	if err := u.persist(sagaCtx, order); err != nil {
		productIDs := make([]string, 0, len(order.Lines))
		for _, line := range order.Lines {
			productIDs = append(productIDs, line.ProductID.String())
		}
		u.logger.Error("order persistence failed after stock was decremented",
			slog.String("order_id", order.ID.String()),
			slog.Any("product_ids", productIDs),
			slog.Any("error", err),
		)
		return nil, &domain.PersistenceAfterCommitError{OrderID: order.ID, Cause: err}
	}

	u.logger.Info("order approved",
		slog.String("order_id", order.ID.String()),
		slog.String("total", order.Total.String()),
	)
	return order, nil
}

// buildOrder looks every line up in caller order and freezes its unit price.
// Nothing is mutated remotely.
func (u *orderUseCase) buildOrder(ctx context.Context, input *domain.PlaceOrderInput) (*domain.Order, error) {
	orderID := u.newOrderID()
	lines := make([]domain.OrderLine, 0, len(input.Lines))

	for _, requested := range input.Lines {
		product, err := u.lookup(ctx, requested.ProductID)
		if err != nil {
			return nil, err
		}
		if requested.Quantity > product.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: requested.ProductID,
				Available: product.Quantity,
				Requested: requested.Quantity,
			}
		}
		lines = append(lines, domain.OrderLine{
			ID:        uuid.Must(uuid.NewV7()),
			OrderID:   orderID,
			ProductID: requested.ProductID,
			Quantity:  requested.Quantity,
			UnitPrice: product.Price,
		})
	}

	now := u.now().UTC()
	return &domain.Order{
		ID:         orderID,
		CustomerID: input.CustomerID,
		Status:     domain.OrderStatusPending,
		Total:      domain.ComputeTotal(lines),
		Lines:      lines,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (u *orderUseCase) lookup(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error) {
	ctx, span := u.tracer.Start(ctx, "inventory.get_product",
		trace.WithAttributes(attribute.String("product.id", productID.String())))
	defer span.End()

	product, err := u.inventory.GetProduct(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return product, nil
}

// decrementAll decrements line by line. The first failure compensates every applied
// decrement and returns the original error, or a CompensationFailedError when stock
// could not be given back.
func (u *orderUseCase) decrementAll(ctx context.Context, order *domain.Order) error {
	applied := make([]domain.OrderLine, 0, len(order.Lines))

	for _, line := range order.Lines {
		if err := u.decrement(ctx, line); err != nil {
			u.logger.Warn("stock decrement failed, compensating",
				slog.String("order_id", order.ID.String()),
				slog.String("product_id", line.ProductID.String()),
				slog.Int("applied", len(applied)),
				slog.Any("error", err),
			)
			if compErr := u.compensate(ctx, order.ID, applied, err); compErr != nil {
				return compErr
			}
			return err
		}
		applied = append(applied, line)
	}
	return nil
}

func (u *orderUseCase) decrement(ctx context.Context, line domain.OrderLine) error {
	ctx, span := u.tracer.Start(ctx, "inventory.decrement",
		trace.WithAttributes(
			attribute.String("product.id", line.ProductID.String()),
			attribute.Int64("quantity", line.Quantity),
		))
	defer span.End()

	if _, err := u.inventory.Decrement(ctx, line.ProductID, line.Quantity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// compensate increments back every applied line, newest first. Every line is
// attempted even after a failure.
func (u *orderUseCase) compensate(
	ctx context.Context,
	orderID uuid.UUID,
	applied []domain.OrderLine,
	trigger error,
) error {
	if len(applied) == 0 {
		return nil
	}

	ctx, span := u.tracer.Start(ctx, "orders.compensate",
		trace.WithAttributes(
			attribute.String("order.id", orderID.String()),
			attribute.Int("compensation.lines", len(applied)),
		))
	defer span.End()

	var (
		failed []uuid.UUID
		errs   []error
	)
	for i := len(applied) - 1; i >= 0; i-- {
		line := applied[i]
		if _, err := u.inventory.Increment(ctx, line.ProductID, line.Quantity); err != nil {
			u.logger.Error("compensation increment failed",
				slog.String("order_id", orderID.String()),
				slog.String("product_id", line.ProductID.String()),
				slog.Int64("quantity", line.Quantity),
				slog.Any("error", err),
			)
			failed = append(failed, line.ProductID)
			errs = append(errs, err)
		}
	}

	if len(failed) == 0 {
		u.metrics.RecordCompensation(ctx, metrics.StatusSuccess)
		return nil
	}

	u.metrics.RecordCompensation(ctx, metrics.StatusError)
	cause := apperrors.Join(errs...)
	span.RecordError(cause)
	span.SetStatus(codes.Error, "compensation failed")
	return &domain.CompensationFailedError{
		OrderID:    orderID,
		ProductIDs: failed,
		Trigger:    trigger,
		Cause:      cause,
	}
}

// persist writes the approved order and its sale.completed outbox message atomically.
func (u *orderUseCase) persist(ctx context.Context, order *domain.Order) error {
	ctx, span := u.tracer.Start(ctx, "orders.persist",
		trace.WithAttributes(attribute.String("order.id", order.ID.String())))
	defer span.End()

	order.Status = domain.OrderStatusApproved

	event := &events.SaleCompletedEvent{
		OrderID:    order.ID,
		Items:      make([]events.SaleItem, 0, len(order.Lines)),
		Total:      order.Total,
		OccurredAt: order.CreatedAt,
	}
	for _, line := range order.Lines {
		event.Items = append(event.Items, events.SaleItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	payload, err := events.EncodeSaleCompleted(event)
	if err != nil {
		return err
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.orderRepo.Create(ctx, order); err != nil {
			return err
		}
		return u.outbox.Create(ctx, outboxDomain.NewOutboxMessage(events.TypeSaleCompleted, payload, event.OccurredAt))
	})
	if err != nil {
		order.Status = domain.OrderStatusPending
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Get returns a stored order with its lines.
func (u *orderUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return u.orderRepo.Get(ctx, id)
}

// List returns orders newest first.
func (u *orderUseCase) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	return u.orderRepo.List(ctx, offset, limit)
}
