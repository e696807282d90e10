package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/database"
	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/events"
	"github.com/allisson/storefront/internal/inventory/domain"
)

// SaleConsumerConfig controls the consumer behaviour.
type SaleConsumerConfig struct {
	// ApplyStock decrements stock for each sale line. When false the consumer only
	// records the order as processed and stock is owned by the synchronous path.
	ApplyStock bool
}

// SaleConsumer applies sale.completed events at most once per order, however many
// times the channel delivers them.
type SaleConsumer struct {
	config             SaleConsumerConfig
	txManager          database.TxManager
	productRepo        ProductRepository
	processedOrderRepo ProcessedOrderRepository
	logger             *slog.Logger
}

// NewSaleConsumer creates a new SaleConsumer.
func NewSaleConsumer(
	config SaleConsumerConfig,
	txManager database.TxManager,
	productRepo ProductRepository,
	processedOrderRepo ProcessedOrderRepository,
	logger *slog.Logger,
) *SaleConsumer {
	return &SaleConsumer{
		config:             config,
		txManager:          txManager,
		productRepo:        productRepo,
		processedOrderRepo: processedOrderRepo,
		logger:             logger,
	}
}

// HandleSaleCompleted applies event. The already-processed check happens before any
// stock change; the stock changes and the processed record commit together, and the
// unique constraint on the record turns a racing duplicate into a rolled-back no-op.
// A returned error means nothing was committed and the event should be redelivered.
func (s *SaleConsumer) HandleSaleCompleted(ctx context.Context, event *events.SaleCompletedEvent) error {
	logger := s.logger.With(slog.String("order_id", event.OrderID.String()))

	processed, err := s.processedOrderRepo.Exists(ctx, event.OrderID)
	if err != nil {
		return err
	}
	if processed {
		logger.Info("duplicate sale event ignored")
		return nil
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if s.config.ApplyStock {
			for _, item := range event.Items {
				if err := s.applyItem(ctx, logger, item); err != nil {
					return err
				}
			}
		}

		return s.processedOrderRepo.Create(ctx, &domain.ProcessedOrder{
			ID:          uuid.Must(uuid.NewV7()),
			OrderID:     event.OrderID,
			ProcessedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		if apperrors.Is(err, domain.ErrOrderAlreadyProcessed) {
			logger.Info("duplicate sale event ignored after concurrent delivery")
			return nil
		}
		return err
	}

	logger.Info("sale event applied",
		slog.Int("items", len(event.Items)),
		slog.Bool("stock_applied", s.config.ApplyStock),
	)
	return nil
}

// applyItem decrements one sale line. Missing products and lines exceeding stock are
// skipped with a warning; only unexpected failures abort the event.
func (s *SaleConsumer) applyItem(ctx context.Context, logger *slog.Logger, item events.SaleItem) error {
	remaining, err := s.productRepo.Decrement(ctx, item.ProductID, item.Quantity)
	if err == nil {
		logger.Debug("stock decremented",
			slog.String("product_id", item.ProductID.String()),
			slog.Int64("quantity", item.Quantity),
			slog.Int64("remaining", remaining),
		)
		return nil
	}

	var stockErr *domain.InsufficientStockError
	switch {
	case apperrors.Is(err, domain.ErrProductNotFound):
		logger.Warn("sale line skipped: product not found",
			slog.String("product_id", item.ProductID.String()))
		return nil
	case apperrors.As(err, &stockErr):
		logger.Warn("sale line skipped: insufficient stock",
			slog.String("product_id", item.ProductID.String()),
			slog.Int64("available", stockErr.Available),
			slog.Int64("requested", stockErr.Requested),
		)
		return nil
	default:
		return err
	}
}
