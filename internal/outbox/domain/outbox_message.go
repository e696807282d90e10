// Package domain defines the transactional outbox entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a pending integration event written in the same transaction as
// the business change that produced it. Content holds the serialized event.
type OutboxMessage struct {
	ID          uuid.UUID
	OccurredAt  time.Time
	Type        string
	Content     string
	Processed   bool
	ProcessedAt *time.Time
}

// NewOutboxMessage creates an unprocessed message with a time-ordered id.
func NewOutboxMessage(eventType string, content []byte, occurredAt time.Time) *OutboxMessage {
	return &OutboxMessage{
		ID:         uuid.Must(uuid.NewV7()),
		OccurredAt: occurredAt.UTC(),
		Type:       eventType,
		Content:    string(content),
	}
}
