package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/storefront/internal/inventory/domain"
	"github.com/allisson/storefront/internal/testutil"
)

var productColumns = []string{"id", "name", "description", "quantity", "price", "created_at", "updated_at"}

func newProduct() *domain.Product {
	now := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	return &domain.Product{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        "Keyboard",
		Description: "Mechanical keyboard",
		Quantity:    10,
		Price:       decimal.RequireFromString("249.90"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPostgreSQLProductRepository_Create(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewPostgreSQLProductRepository(db)
	product := newProduct()

	mock.ExpectExec(`INSERT INTO products`).
		WithArgs(product.ID, "Keyboard", "Mechanical keyboard", int64(10), product.Price,
			product.CreatedAt, product.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), product))
}

func TestPostgreSQLProductRepository_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)
		product := newProduct()

		mock.ExpectQuery(`SELECT (.+) FROM products WHERE id =`).
			WithArgs(product.ID).
			WillReturnRows(sqlmock.NewRows(productColumns).AddRow(
				product.ID.String(), product.Name, product.Description, product.Quantity,
				"249.90", product.CreatedAt, product.UpdatedAt,
			))

		got, err := repo.Get(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, got.ID)
		assert.Equal(t, int64(10), got.Quantity)
		assert.True(t, product.Price.Equal(got.Price))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`FROM products WHERE id =`).WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`FROM products WHERE id =`).WillReturnError(errors.New("connection refused"))

		_, err := repo.Get(context.Background(), uuid.Must(uuid.NewV7()))
		assert.ErrorContains(t, err, "failed to get product")
		assert.NotErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func TestPostgreSQLProductRepository_List(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewPostgreSQLProductRepository(db)
	a, b := newProduct(), newProduct()

	mock.ExpectQuery(`FROM products ORDER BY created_at ASC, id ASC LIMIT`).
		WithArgs(20, 40).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(a.ID.String(), a.Name, a.Description, a.Quantity, "249.90", a.CreatedAt, a.UpdatedAt).
			AddRow(b.ID.String(), b.Name, b.Description, b.Quantity, "249.90", b.CreatedAt, b.UpdatedAt))

	products, err := repo.List(context.Background(), 40, 20)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, a.ID, products[0].ID)
	assert.Equal(t, b.ID, products[1].ID)
}

func TestPostgreSQLProductRepository_Decrement(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	t.Run("Success_ReturnsRemaining", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`UPDATE products SET quantity = quantity - (.+) WHERE id = (.+) AND quantity >= (.+) RETURNING quantity`).
			WithArgs(int64(3), sqlmock.AnyArg(), id).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(7))

		remaining, err := repo.Decrement(context.Background(), id, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(7), remaining)
	})

	t.Run("Error_InsufficientStock", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`UPDATE products`).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT quantity FROM products WHERE id =`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))

		_, err := repo.Decrement(context.Background(), id, 3)

		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, id, stockErr.ProductID)
		assert.Equal(t, int64(1), stockErr.Available)
		assert.Equal(t, int64(3), stockErr.Requested)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`UPDATE products`).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT quantity FROM products`).WillReturnError(sql.ErrNoRows)

		_, err := repo.Decrement(context.Background(), id, 3)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`UPDATE products`).WillReturnError(errors.New("deadlock detected"))

		_, err := repo.Decrement(context.Background(), id, 3)
		assert.ErrorContains(t, err, "failed to decrement stock")
	})
}

func TestPostgreSQLProductRepository_Increment(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`UPDATE products SET quantity = quantity \+ (.+) RETURNING quantity`).
			WithArgs(int64(2), sqlmock.AnyArg(), id).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(12))

		remaining, err := repo.Increment(context.Background(), id, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(12), remaining)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLProductRepository(db)

		mock.ExpectQuery(`UPDATE products`).WillReturnError(sql.ErrNoRows)

		_, err := repo.Increment(context.Background(), id, 2)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}
