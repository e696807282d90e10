// Package repository implements order persistence for PostgreSQL and MySQL.
//
// An order and its lines are written in one transaction. When the context already
// carries a transaction (the saga's order + outbox write) the repository joins it.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/database"
	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/orders/domain"
)

// PostgreSQLOrderRepository implements order persistence for PostgreSQL.
type PostgreSQLOrderRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewPostgreSQLOrderRepository creates a new PostgreSQLOrderRepository.
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{db: db, txManager: database.NewTxManager(db)}
}

// Create inserts the order followed by its lines in caller order.
func (p *PostgreSQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return p.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, p.db)

		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO orders (id, customer_id, status, total, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID,
			order.CustomerID,
			string(order.Status),
			order.Total,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Wrap(apperrors.ErrConflict, "order already exists")
			}
			return apperrors.Wrap(err, "failed to create order")
		}

		for i, line := range order.Lines {
			_, err := querier.ExecContext(
				ctx,
				`INSERT INTO order_lines (id, order_id, line_number, product_id, quantity, unit_price)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				line.ID,
				order.ID,
				i+1,
				line.ProductID,
				line.Quantity,
				line.UnitPrice,
			)
			if err != nil {
				return apperrors.Wrap(err, "failed to create order line")
			}
		}
		return nil
	})
}

// Get returns the order with its lines.
func (p *PostgreSQLOrderRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, customer_id, status, total, created_at, updated_at
			  FROM orders WHERE id = $1`

	var order domain.Order
	var status string
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.CustomerID,
		&status,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order")
	}
	order.Status = domain.OrderStatus(status)

	if order.Lines, err = p.lines(ctx, querier, order.ID); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, each with its lines.
func (p *PostgreSQLOrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, customer_id, status, total, created_at, updated_at
			  FROM orders
			  ORDER BY created_at DESC, id DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer rows.Close() //nolint:errcheck

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&status,
			&order.Total,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order")
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate orders")
	}

	for _, order := range orders {
		if order.Lines, err = p.lines(ctx, querier, order.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (p *PostgreSQLOrderRepository) lines(
	ctx context.Context,
	querier database.Querier,
	orderID uuid.UUID,
) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, product_id, quantity, unit_price
			  FROM order_lines WHERE order_id = $1
			  ORDER BY line_number ASC`

	rows, err := querier.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list order lines")
	}
	defer rows.Close() //nolint:errcheck

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.UnitPrice,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order line")
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate order lines")
	}
	return lines, nil
}
