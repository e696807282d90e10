package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/database"
	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/outbox/domain"
)

// MySQLOutboxRepository stores outbox messages in MySQL. Ids are BINARY(16).
type MySQLOutboxRepository struct {
	db *sql.DB
}

// NewMySQLOutboxRepository creates a new MySQLOutboxRepository.
func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{db: db}
}

// Create inserts msg, joining the transaction carried by ctx if there is one.
func (r *MySQLOutboxRepository) Create(ctx context.Context, msg *domain.OutboxMessage) error {
	querier := database.GetTx(ctx, r.db)

	id, err := msg.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal outbox message id")
	}

	query := `INSERT INTO outbox_messages (id, occurred_at, type, content, processed, processed_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		msg.OccurredAt,
		msg.Type,
		msg.Content,
		msg.Processed,
		msg.ProcessedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox message")
	}
	return nil
}

// GetUnprocessed returns up to limit unprocessed messages, oldest first.
func (r *MySQLOutboxRepository) GetUnprocessed(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxMessage, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, occurred_at, type, content, processed, processed_at
			  FROM outbox_messages
			  WHERE processed = false
			  ORDER BY occurred_at ASC, id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list unprocessed outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	messages := make([]*domain.OutboxMessage, 0)
	for rows.Next() {
		var msg domain.OutboxMessage
		var id []byte
		if err := rows.Scan(
			&id,
			&msg.OccurredAt,
			&msg.Type,
			&msg.Content,
			&msg.Processed,
			&msg.ProcessedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox message")
		}
		if err := msg.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal outbox message id")
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox messages")
	}

	return messages, nil
}

// MarkProcessed flags a message as delivered to the channel.
func (r *MySQLOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal outbox message id")
	}

	query := `UPDATE outbox_messages SET processed = true, processed_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, at, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark outbox message as processed")
	}
	return requireAffected(result, id)
}
