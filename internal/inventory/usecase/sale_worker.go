package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/storefront/internal/events"
	"github.com/allisson/storefront/internal/messaging"
)

// SaleWorker consumes the message channel and dispatches sale events to a handler.
type SaleWorker struct {
	subscriber messaging.Subscriber
	handler    SaleEventHandler
	logger     *slog.Logger
}

// NewSaleWorker creates a new SaleWorker.
func NewSaleWorker(subscriber messaging.Subscriber, handler SaleEventHandler, logger *slog.Logger) *SaleWorker {
	return &SaleWorker{subscriber: subscriber, handler: handler, logger: logger}
}

// Start blocks until ctx is cancelled. The message being handled when ctx is
// cancelled is allowed to finish.
func (w *SaleWorker) Start(ctx context.Context) error {
	w.logger.Info("starting sale worker")
	err := w.subscriber.Subscribe(ctx, w.Handle)
	w.logger.Info("stopping sale worker")
	return err
}

// Handle dispatches one channel message. Messages that can never succeed (unknown
// types, undecodable payloads) are logged and acknowledged.
func (w *SaleWorker) Handle(ctx context.Context, msg messaging.Message) error {
	switch msg.Type {
	case events.TypeSaleCompleted:
		event, err := events.DecodeSaleCompleted(msg.Payload)
		if err != nil {
			w.logger.Error("discarding malformed sale event",
				slog.String("key", msg.Key),
				slog.Any("error", err),
			)
			return nil
		}
		return w.handler.HandleSaleCompleted(ctx, event)

	case events.TypeRaw:
		envelope, err := events.DecodeRaw(msg.Payload)
		if err != nil {
			w.logger.Error("discarding malformed raw envelope", slog.Any("error", err))
			return nil
		}
		w.logger.Warn("ignoring raw outbox envelope", slog.String("original_type", envelope.Type))
		return nil

	default:
		w.logger.Warn("ignoring message of unknown type", slog.String("type", msg.Type))
		return nil
	}
}
