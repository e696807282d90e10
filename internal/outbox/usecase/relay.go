// Package usecase implements the outbox relay: it drains unprocessed outbox messages
// to the message channel and marks them processed.
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

	"github.com/allisson/storefront/internal/metrics"
	"github.com/allisson/storefront/internal/outbox/domain"
)

// Config holds relay configuration.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// OutboxRepository defines outbox persistence operations.
type OutboxRepository interface {
	Create(ctx context.Context, msg *domain.OutboxMessage) error
	GetUnprocessed(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// EventPublisher delivers one outbox message to the message channel.
type EventPublisher interface {
	Publish(ctx context.Context, msg *domain.OutboxMessage) error
}

// CycleResult summarizes one relay cycle.
type CycleResult struct {
	Fetched   int
	Published int
	Failed    int
}

// Relay polls the outbox and publishes messages one at a time, oldest first.
// Delivery is at-least-once: a crash between publish and mark re-publishes the
// message on the next cycle.
type Relay struct {
	config    Config
	repo      OutboxRepository
	publisher EventPublisher
	metrics   metrics.BusinessMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// NewRelay creates a new Relay.
func NewRelay(
	config Config,
	repo OutboxRepository,
	publisher EventPublisher,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *Relay {
	return &Relay{
		config:    config,
		repo:      repo,
		publisher: publisher,
		metrics:   businessMetrics,
		tracer:    otel.Tracer("github.com/allisson/storefront/internal/outbox"),
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs a cycle on every tick until ctx is cancelled, then returns ctx.Err().
func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info("starting outbox relay",
		slog.Duration("interval", r.config.Interval),
		slog.Int("batch_size", r.config.BatchSize),
	)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping outbox relay")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.ProcessMessages(ctx); err != nil {
				r.logger.Error("outbox relay cycle failed", slog.Any("error", err))
			}
		}
	}
}

// ProcessMessages runs a single cycle. Only a failure to read the outbox is returned;
// per-message failures are logged and the message is left for the next cycle.
// Cancellation stops the cycle between messages, never in the middle of one.
func (r *Relay) ProcessMessages(ctx context.Context) (CycleResult, error) {
	var result CycleResult

	messages, err := r.repo.GetUnprocessed(ctx, r.config.BatchSize)
	if err != nil {
		return result, err
	}
	result.Fetched = len(messages)

	if len(messages) > 0 {
		r.logger.Debug("relaying outbox messages", slog.Int("count", len(messages)))
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}

		if r.relay(context.WithoutCancel(ctx), msg) {
			result.Published++
		} else {
			result.Failed++
		}
	}

	return result, nil
}

// relay publishes msg and marks it processed. It reports whether both succeeded.
func (r *Relay) relay(ctx context.Context, msg *domain.OutboxMessage) bool {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "outbox.relay",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("outbox.message_id", msg.ID.String()),
			attribute.String("outbox.type", msg.Type),
		),
	)
	defer span.End()

	logAttrs := []any{
		slog.String("message_id", msg.ID.String()),
		slog.String("type", msg.Type),
	}

	if err := r.publisher.Publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		metrics.Observe(ctx, r.metrics, "outbox", "publish", start, err)
		r.logger.Error("failed to publish outbox message", append(logAttrs, slog.Any("error", err))...)
		return false
	}
	metrics.Observe(ctx, r.metrics, "outbox", "publish", start, nil)

	if err := r.repo.MarkProcessed(ctx, msg.ID, r.now().UTC()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark processed failed")
		r.logger.Error("published outbox message could not be marked processed; it will be sent again",
			append(logAttrs, slog.Any("error", err))...)
		return false
	}

	r.logger.Info("outbox message relayed", logAttrs...)
	return true
}
