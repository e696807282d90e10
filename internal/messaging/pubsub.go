package messaging

import (
	"context"
	"log/slog"
	"maps"

	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub"
	_ "gocloud.dev/pubsub/rabbitpubsub"
)

// PubSubPublisher publishes messages through a gocloud.dev topic. The driver is
// selected by URL scheme ("rabbit://", "mem://").
type PubSubPublisher struct {
	topic *pubsub.Topic
}

// OpenPubSubPublisher opens the topic at url.
func OpenPubSubPublisher(ctx context.Context, url string) (*PubSubPublisher, error) {
	topic, err := pubsub.OpenTopic(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewPubSubPublisher(topic), nil
}

// NewPubSubPublisher wraps an already opened topic.
func NewPubSubPublisher(topic *pubsub.Topic) *PubSubPublisher {
	return &PubSubPublisher{topic: topic}
}

// Publish sends msg and waits for the driver acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, msg Message) error {
	injectTrace(ctx, &msg)

	metadata := make(map[string]string, len(msg.Headers)+2)
	maps.Copy(metadata, msg.Headers)
	metadata[HeaderEventType] = msg.Type
	metadata[HeaderKey] = msg.Key

	return p.topic.Send(ctx, &pubsub.Message{
		Body:     msg.Payload,
		Metadata: metadata,
	})
}

// Close flushes and shuts down the topic.
func (p *PubSubPublisher) Close() error {
	return p.topic.Shutdown(context.Background())
}

// PubSubSubscriber receives messages from a gocloud.dev subscription. A message is
// acked after the handler succeeds; otherwise it is nacked (when the driver supports
// it) so the broker redelivers it.
type PubSubSubscriber struct {
	subscription *pubsub.Subscription
	retry        RetryPolicy
	logger       *slog.Logger
}

// OpenPubSubSubscriber opens the subscription at url.
func OpenPubSubSubscriber(
	ctx context.Context,
	url string,
	retry RetryPolicy,
	logger *slog.Logger,
) (*PubSubSubscriber, error) {
	subscription, err := pubsub.OpenSubscription(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewPubSubSubscriber(subscription, retry, logger), nil
}

// NewPubSubSubscriber wraps an already opened subscription.
func NewPubSubSubscriber(
	subscription *pubsub.Subscription,
	retry RetryPolicy,
	logger *slog.Logger,
) *PubSubSubscriber {
	return &PubSubSubscriber{subscription: subscription, retry: retry, logger: logger}
}

// Subscribe receives and dispatches messages one at a time until ctx is cancelled.
func (s *PubSubSubscriber) Subscribe(ctx context.Context, handler Handler) error {
	for {
		pm, err := s.subscription.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		msg := fromPubSubMessage(pm)
		handlerCtx := extractTrace(context.WithoutCancel(ctx), msg)

		if err := handleWithRetry(ctx, handlerCtx, s.retry, handler, msg); err != nil {
			s.logger.Error("failed to handle message",
				slog.String("event_type", msg.Type),
				slog.String("key", msg.Key),
				slog.Any("error", err),
			)
			if pm.Nackable() {
				pm.Nack()
			}
			continue
		}

		pm.Ack()
	}
}

// Close shuts down the subscription.
func (s *PubSubSubscriber) Close() error {
	return s.subscription.Shutdown(context.Background())
}

func fromPubSubMessage(pm *pubsub.Message) Message {
	msg := Message{
		Payload: pm.Body,
		Headers: make(map[string]string, len(pm.Metadata)),
	}
	for k, v := range pm.Metadata {
		switch k {
		case HeaderEventType:
			msg.Type = v
		case HeaderKey:
			msg.Key = v
		default:
			msg.Headers[k] = v
		}
	}
	return msg
}
