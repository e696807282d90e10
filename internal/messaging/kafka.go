package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig holds the settings shared by the Kafka publisher and subscriber.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Retry   RetryPolicy
}

// kafkaWriter is the subset of *kafka.Writer used by KafkaPublisher.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaReader is the subset of *kafka.Reader used by KafkaSubscriber.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes messages to a Kafka topic, keyed so that all messages for
// one order land on the same partition.
type KafkaPublisher struct {
	writer kafkaWriter
	closed atomic.Bool
}

// NewKafkaPublisher creates a publisher that waits for acknowledgement from all replicas.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	})
}

func newKafkaPublisher(writer kafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes msg synchronously; a nil error means the brokers acknowledged it.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if p.closed.Load() {
		return ErrClosed
	}

	injectTrace(ctx, &msg)

	headers := make([]kafka.Header, 0, len(msg.Headers)+1)
	headers = append(headers, kafka.Header{Key: HeaderEventType, Value: []byte(msg.Type)})
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Payload,
		Headers: headers,
	})
}

// Close flushes pending writes and releases the connection.
func (p *KafkaPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

// KafkaSubscriber consumes a topic as part of a consumer group. Offsets are committed
// only after the handler returns, so a crash mid-handling causes redelivery.
type KafkaSubscriber struct {
	reader kafkaReader
	retry  RetryPolicy
	logger *slog.Logger
}

// NewKafkaSubscriber creates a consumer-group subscriber with explicit commits.
func NewKafkaSubscriber(cfg KafkaConfig, logger *slog.Logger) *KafkaSubscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newKafkaSubscriber(reader, cfg.Retry, logger)
}

func newKafkaSubscriber(reader kafkaReader, retry RetryPolicy, logger *slog.Logger) *KafkaSubscriber {
	return &KafkaSubscriber{reader: reader, retry: retry, logger: logger}
}

// Subscribe fetches, handles and commits messages until ctx is cancelled.
func (s *KafkaSubscriber) Subscribe(ctx context.Context, handler Handler) error {
	for {
		km, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Error("failed to fetch kafka message", slog.Any("error", err))

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		msg := fromKafkaMessage(km)
		handlerCtx := extractTrace(context.WithoutCancel(ctx), msg)

		if err := handleWithRetry(ctx, handlerCtx, s.retry, handler, msg); err != nil {
			if ctx.Err() != nil {
				// Left uncommitted; the group will redeliver it after restart.
				return nil
			}
			s.logger.Error("giving up on kafka message",
				slog.String("event_type", msg.Type),
				slog.String("key", msg.Key),
				slog.Int64("offset", km.Offset),
				slog.Int("partition", km.Partition),
				slog.Any("error", err),
			)
		}

		if err := s.reader.CommitMessages(context.WithoutCancel(ctx), km); err != nil {
			s.logger.Error("failed to commit kafka message",
				slog.Int64("offset", km.Offset),
				slog.Any("error", err),
			)
		}
	}
}

// Close leaves the consumer group and closes the connection.
func (s *KafkaSubscriber) Close() error {
	return s.reader.Close()
}

func fromKafkaMessage(km kafka.Message) Message {
	msg := Message{
		Key:     string(km.Key),
		Payload: km.Value,
		Headers: make(map[string]string, len(km.Headers)),
	}
	for _, h := range km.Headers {
		if h.Key == HeaderEventType {
			msg.Type = string(h.Value)
			continue
		}
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}
