package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/database"
	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/inventory/domain"
)

// PostgreSQLProcessedOrderRepository records applied sale events in PostgreSQL.
type PostgreSQLProcessedOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLProcessedOrderRepository creates a new PostgreSQLProcessedOrderRepository.
func NewPostgreSQLProcessedOrderRepository(db *sql.DB) *PostgreSQLProcessedOrderRepository {
	return &PostgreSQLProcessedOrderRepository{db: db}
}

// Exists reports whether a record for orderID is present.
func (p *PostgreSQLProcessedOrderRepository) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_orders WHERE order_id = $1)`,
		orderID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check processed order")
	}
	return exists, nil
}

// Create inserts the record. A second record for the same order fails with
// ErrOrderAlreadyProcessed.
func (p *PostgreSQLProcessedOrderRepository) Create(ctx context.Context, record *domain.ProcessedOrder) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(
		ctx,
		`INSERT INTO processed_orders (id, order_id, processed_at) VALUES ($1, $2, $3)`,
		record.ID,
		record.OrderID,
		record.ProcessedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrOrderAlreadyProcessed
		}
		return apperrors.Wrap(err, "failed to create processed order")
	}
	return nil
}
