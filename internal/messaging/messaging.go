// Package messaging provides the message channel used to propagate integration
// events between services. Delivery is at-least-once: publishers may send a message
// more than once and subscribers may receive it more than once.
package messaging

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Well-known header keys carried alongside every message.
const (
	HeaderEventType = "event-type"
	HeaderKey       = "message-key"
)

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("messaging: closed")

// Message is a transport-neutral channel message.
type Message struct {
	// Type is the event type tag (e.g., "sale.completed").
	Type string
	// Key groups related messages; drivers that partition use it for ordering.
	Key string
	// Payload is the serialized event.
	Payload []byte
	// Headers carries metadata such as trace context.
	Headers map[string]string
}

// Handler processes a received message. Returning an error asks the subscriber to
// redeliver it.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the channel.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the channel and dispatches them to a Handler.
// Subscribe blocks until ctx is cancelled or the subscription fails permanently.
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}

// RetryPolicy controls how many times a failing handler is invoked for one delivery.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// handleWithRetry invokes handler until it succeeds or the policy is exhausted.
// Waiting between attempts is interrupted by stop; the handler itself runs under
// handlerCtx so an in-flight attempt is never cut short by shutdown.
func handleWithRetry(
	stop context.Context,
	handlerCtx context.Context,
	policy RetryPolicy,
	handler Handler,
	msg Message,
) error {
	var err error
	for attempt := 1; attempt <= policy.attempts(); attempt++ {
		if err = handler(handlerCtx, msg); err == nil {
			return nil
		}
		if attempt == policy.attempts() {
			break
		}

		timer := time.NewTimer(policy.Backoff)
		select {
		case <-stop.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// injectTrace writes the trace context of ctx into msg headers.
func injectTrace(ctx context.Context, msg *Message) {
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Headers))
}

// extractTrace returns ctx enriched with the trace context found in msg headers.
func extractTrace(ctx context.Context, msg Message) context.Context {
	if len(msg.Headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Headers))
}
