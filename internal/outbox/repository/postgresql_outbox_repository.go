// Package repository persists outbox messages for PostgreSQL and MySQL.
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

// PostgreSQLOutboxRepository stores outbox messages in PostgreSQL.
type PostgreSQLOutboxRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxRepository creates a new PostgreSQLOutboxRepository.
func NewPostgreSQLOutboxRepository(db *sql.DB) *PostgreSQLOutboxRepository {
	return &PostgreSQLOutboxRepository{db: db}
}

// Create inserts msg, joining the transaction carried by ctx if there is one.
func (r *PostgreSQLOutboxRepository) Create(ctx context.Context, msg *domain.OutboxMessage) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_messages (id, occurred_at, type, content, processed, processed_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		msg.ID,
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
func (r *PostgreSQLOutboxRepository) GetUnprocessed(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxMessage, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, occurred_at, type, content, processed, processed_at
			  FROM outbox_messages
			  WHERE processed = false
			  ORDER BY occurred_at ASC, id ASC
			  LIMIT $1`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list unprocessed outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	messages := make([]*domain.OutboxMessage, 0)
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.OccurredAt,
			&msg.Type,
			&msg.Content,
			&msg.Processed,
			&msg.ProcessedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox message")
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox messages")
	}

	return messages, nil
}

// MarkProcessed flags a message as delivered to the channel.
func (r *PostgreSQLOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_messages SET processed = true, processed_at = $1 WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, at, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark outbox message as processed")
	}
	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "outbox message %s not found", id)
	}
	return nil
}
