package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/database"
	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/inventory/domain"
)

// MySQLProcessedOrderRepository records applied sale events in MySQL.
type MySQLProcessedOrderRepository struct {
	db *sql.DB
}

// NewMySQLProcessedOrderRepository creates a new MySQLProcessedOrderRepository.
func NewMySQLProcessedOrderRepository(db *sql.DB) *MySQLProcessedOrderRepository {
	return &MySQLProcessedOrderRepository{db: db}
}

// Exists reports whether a record for orderID is present.
func (m *MySQLProcessedOrderRepository) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	orderIDBytes, err := orderID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal order id")
	}

	var exists bool
	err = querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_orders WHERE order_id = ?)`,
		orderIDBytes,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check processed order")
	}
	return exists, nil
}

// Create inserts the record. A second record for the same order fails with
// ErrOrderAlreadyProcessed.
func (m *MySQLProcessedOrderRepository) Create(ctx context.Context, record *domain.ProcessedOrder) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal processed order id")
	}
	orderID, err := record.OrderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	_, err = querier.ExecContext(
		ctx,
		`INSERT INTO processed_orders (id, order_id, processed_at) VALUES (?, ?, ?)`,
		id,
		orderID,
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
