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

// MySQLOrderRepository implements order persistence for MySQL. Ids are stored as
// BINARY(16).
type MySQLOrderRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewMySQLOrderRepository creates a new MySQLOrderRepository.
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db, txManager: database.NewTxManager(db)}
}

// Create inserts the order followed by its lines in caller order.
func (m *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	orderID, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	return m.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, m.db)

		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO orders (id, customer_id, status, total, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			orderID,
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
			lineID, err := line.ID.MarshalBinary()
			if err != nil {
				return apperrors.Wrap(err, "failed to marshal order line id")
			}
			productID, err := line.ProductID.MarshalBinary()
			if err != nil {
				return apperrors.Wrap(err, "failed to marshal product id")
			}

			_, err = querier.ExecContext(
				ctx,
				`INSERT INTO order_lines (id, order_id, line_number, product_id, quantity, unit_price)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				lineID,
				orderID,
				i+1,
				productID,
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
func (m *MySQLOrderRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	query := `SELECT id, customer_id, status, total, created_at, updated_at
			  FROM orders WHERE id = ?`

	order, err := scanMySQLOrder(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order")
	}

	if order.Lines, err = m.lines(ctx, querier, idBytes); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns orders newest first, each with its lines.
func (m *MySQLOrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, customer_id, status, total, created_at, updated_at
			  FROM orders
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer rows.Close() //nolint:errcheck

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanMySQLOrder(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order")
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate orders")
	}

	for _, order := range orders {
		idBytes, err := order.ID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal order id")
		}
		if order.Lines, err = m.lines(ctx, querier, idBytes); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (m *MySQLOrderRepository) lines(
	ctx context.Context,
	querier database.Querier,
	orderID []byte,
) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, product_id, quantity, unit_price
			  FROM order_lines WHERE order_id = ?
			  ORDER BY line_number ASC`

	rows, err := querier.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list order lines")
	}
	defer rows.Close() //nolint:errcheck

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		var id, order, product []byte
		if err := rows.Scan(&id, &order, &product, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order line")
		}
		if err := line.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal order line id")
		}
		if err := line.OrderID.UnmarshalBinary(order); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal order id")
		}
		if err := line.ProductID.UnmarshalBinary(product); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal product id")
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate order lines")
	}
	return lines, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var id []byte
	var status string
	if err := row.Scan(
		&id,
		&order.CustomerID,
		&status,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := order.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}
	order.Status = domain.OrderStatus(status)
	return &order, nil
}
