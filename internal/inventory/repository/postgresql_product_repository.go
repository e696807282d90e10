// Package repository implements inventory persistence for PostgreSQL and MySQL.
//
// Stock changes are single conditional statements so that concurrent adjustments of
// one product serialize on its row lock and quantity can never go negative.
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

// PostgreSQLProductRepository implements product persistence for PostgreSQL.
type PostgreSQLProductRepository struct {
	db *sql.DB
}

// NewPostgreSQLProductRepository creates a new PostgreSQLProductRepository.
func NewPostgreSQLProductRepository(db *sql.DB) *PostgreSQLProductRepository {
	return &PostgreSQLProductRepository{db: db}
}

// Create inserts a new product.
func (p *PostgreSQLProductRepository) Create(ctx context.Context, product *domain.Product) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO products (id, name, description, quantity, price, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		product.ID,
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

// Get returns the product with its current quantity and price. It has no side effects.
func (p *PostgreSQLProductRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, description, quantity, price, created_at, updated_at
			  FROM products WHERE id = $1`

	var product domain.Product
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Quantity,
		&product.Price,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product")
	}

	return &product, nil
}

// List returns products ordered by creation time.
func (p *PostgreSQLProductRepository) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, description, quantity, price, created_at, updated_at
			  FROM products
			  ORDER BY created_at ASC, id ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list products")
	}
	defer rows.Close() //nolint:errcheck

	products := make([]*domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Quantity,
			&product.Price,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate products")
	}

	return products, nil
}

// Decrement subtracts qty from the product's stock if at least qty is available and
// returns the remaining quantity.
func (p *PostgreSQLProductRepository) Decrement(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE products
			  SET quantity = quantity - $1, updated_at = $2
			  WHERE id = $3 AND quantity >= $1
			  RETURNING quantity`

	var remaining int64
	err := querier.QueryRowContext(ctx, query, qty, time.Now().UTC(), id).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.Wrap(err, "failed to decrement stock")
	}

	// Nothing matched: either the product is missing or it has too little stock.
	var available int64
	err = querier.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = $1`, id).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, apperrors.Wrap(err, "failed to read stock")
	}
	return 0, &domain.InsufficientStockError{ProductID: id, Available: available, Requested: qty}
}

// Increment adds qty to the product's stock and returns the new quantity.
func (p *PostgreSQLProductRepository) Increment(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE products
			  SET quantity = quantity + $1, updated_at = $2
			  WHERE id = $3
			  RETURNING quantity`

	var remaining int64
	err := querier.QueryRowContext(ctx, query, qty, time.Now().UTC(), id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, apperrors.Wrap(err, "failed to increment stock")
	}
	return remaining, nil
}
