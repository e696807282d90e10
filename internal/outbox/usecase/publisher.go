package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/storefront/internal/events"
	"github.com/allisson/storefront/internal/messaging"
	"github.com/allisson/storefront/internal/outbox/domain"
)

// HeaderOutboxID carries the originating outbox message id on channel messages.
const HeaderOutboxID = "outbox-id"

// ChannelPublisher maps outbox messages to channel messages. Known event types are
// validated and re-encoded; anything it cannot interpret is sent as a raw envelope
// so that no message is dropped.
type ChannelPublisher struct {
	publisher messaging.Publisher
	logger    *slog.Logger
}

// NewChannelPublisher creates a ChannelPublisher writing to publisher.
func NewChannelPublisher(publisher messaging.Publisher, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{publisher: publisher, logger: logger}
}

// Publish sends msg to the channel.
func (p *ChannelPublisher) Publish(ctx context.Context, msg *domain.OutboxMessage) error {
	channelMsg, err := p.toChannelMessage(msg)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, channelMsg)
}

func (p *ChannelPublisher) toChannelMessage(msg *domain.OutboxMessage) (messaging.Message, error) {
	headers := map[string]string{HeaderOutboxID: msg.ID.String()}

	if msg.Type == events.TypeSaleCompleted {
		event, err := events.DecodeSaleCompleted([]byte(msg.Content))
		if err == nil {
			payload, err := events.EncodeSaleCompleted(event)
			if err != nil {
				return messaging.Message{}, err
			}
			return messaging.Message{
				Type:    events.TypeSaleCompleted,
				Key:     event.OrderID.String(),
				Payload: payload,
				Headers: headers,
			}, nil
		}
		p.logger.Warn("outbox message does not decode as its type; sending raw envelope",
			slog.String("message_id", msg.ID.String()),
			slog.String("type", msg.Type),
			slog.Any("error", err),
		)
	}

	payload, err := events.EncodeRaw(events.RawEnvelope{Type: msg.Type, Content: msg.Content})
	if err != nil {
		return messaging.Message{}, err
	}
	return messaging.Message{
		Type:    events.TypeRaw,
		Key:     msg.ID.String(),
		Payload: payload,
		Headers: headers,
	}, nil
}
