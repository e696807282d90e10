package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/database"
	apperrors "github.com/allisson/storefront/internal/errors"
	"github.com/allisson/storefront/internal/inventory/domain"
)

// MySQLProductRepository implements product persistence for MySQL. Ids are stored as
// BINARY(16). MySQL has no UPDATE ... RETURNING, so adjustments run the conditional
// UPDATE and the follow-up SELECT inside one transaction.
type MySQLProductRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewMySQLProductRepository creates a new MySQLProductRepository.
func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db, txManager: database.NewTxManager(db)}
}

// Create inserts a new product.
func (m *MySQLProductRepository) Create(ctx context.Context, product *domain.Product) error {
	querier := database.GetTx(ctx, m.db)

	id, err := product.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `INSERT INTO products (id, name, description, quantity, price, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		product.Name,
		product.Description,
		product.Quantity,
		product.Price,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create product")
	}
	return nil
}

// Get returns the product with its current quantity and price.
func (m *MySQLProductRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `SELECT id, name, description, quantity, price, created_at, updated_at
			  FROM products WHERE id = ?`

	product, err := scanMySQLProduct(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product")
	}
	return product, nil
}

// List returns products ordered by creation time.
func (m *MySQLProductRepository) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, description, quantity, price, created_at, updated_at
			  FROM products
			  ORDER BY created_at ASC, id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list products")
	}
	defer rows.Close() //nolint:errcheck

	products := make([]*domain.Product, 0)
	for rows.Next() {
		product, err := scanMySQLProduct(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate products")
	}

	return products, nil
}

// Decrement subtracts qty from the product's stock if at least qty is available and
// returns the remaining quantity.
func (m *MySQLProductRepository) Decrement(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal product id")
	}

	var remaining int64
	err = m.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, m.db)

		result, err := querier.ExecContext(
			ctx,
			`UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?`,
			qty, time.Now().UTC(), idBytes, qty,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to decrement stock")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return apperrors.Wrap(err, "failed to get affected rows")
		}

		current, err := m.readQuantity(ctx, querier, idBytes)
		if err != nil {
			return err
		}
		if affected == 0 {
			return &domain.InsufficientStockError{ProductID: id, Available: current, Requested: qty}
		}
		remaining = current
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// Increment adds qty to the product's stock and returns the new quantity.
func (m *MySQLProductRepository) Increment(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal product id")
	}

	var remaining int64
	err = m.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, m.db)

		_, err := querier.ExecContext(
			ctx,
			`UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
			qty, time.Now().UTC(), idBytes,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to increment stock")
		}

		remaining, err = m.readQuantity(ctx, querier, idBytes)
		return err
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (m *MySQLProductRepository) readQuantity(
	ctx context.Context,
	querier database.Querier,
	idBytes []byte,
) (int64, error) {
	var quantity int64
	err := querier.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = ?`, idBytes).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, apperrors.Wrap(err, "failed to read stock")
	}
	return quantity, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLProduct(row rowScanner) (*domain.Product, error) {
	var product domain.Product
	var id []byte
	if err := row.Scan(
		&id,
		&product.Name,
		&product.Description,
		&product.Quantity,
		&product.Price,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := product.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}
	return &product, nil
}
