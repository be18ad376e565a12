package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"warehouse_service/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{"id", "name", "category_id", "category_name", "quantity", "unit_price"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return sqlDB, mock
}

func sqlFragment(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func widgetRow(quantity int) *sqlmock.Rows {
	return sqlmock.NewRows(productRowColumns).AddRow(1, "Widget", 3, "Tools", quantity, "12.50")
}

func TestPostgresDecreaseQuantityIfEnough(t *testing.T) {
	ctx := context.Background()

	t.Run("updates in one statement", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("WHERE id = $2 AND quantity >= $1")).
			WithArgs(4, 1).
			WillReturnRows(widgetRow(6))

		product, err := repo.DecreaseQuantityIfEnough(ctx, 1, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, product.Quantity)
		assert.Equal(t, "Tools", product.CategoryName)
		assert.Equal(t, "12.5", product.UnitPrice.String())
	})

	t.Run("insufficient stock reports what is left", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("quantity >= $1")).
			WithArgs(9, 1).
			WillReturnRows(sqlmock.NewRows(productRowColumns))
		mock.ExpectQuery(sqlFragment("WHERE p.id = $1")).
			WithArgs(1).
			WillReturnRows(widgetRow(5))

		_, err := repo.DecreaseQuantityIfEnough(ctx, 1, 9)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), "unexpected error: %v", err)
		assert.Equal(t, "amount", verr.Field)
		assert.Contains(t, verr.Message, "only 5 in stock")
	})

	t.Run("missing product", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("quantity >= $1")).
			WithArgs(1, 42).
			WillReturnRows(sqlmock.NewRows(productRowColumns))
		mock.ExpectQuery(sqlFragment("WHERE p.id = $1")).
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		_, err := repo.DecreaseQuantityIfEnough(ctx, 42, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("driver failure", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("quantity >= $1")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.DecreaseQuantityIfEnough(ctx, 1, 1)
		assert.True(t, domain.IsBackendUnavailable(err))
	})
}

func TestPostgresIncreaseQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("bounded by the stock limit", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("WHERE id = $2 AND quantity <= $3")).
			WithArgs(25, 1, domain.MaxQuantity-25).
			WillReturnRows(widgetRow(35))

		product, err := repo.IncreaseQuantity(ctx, 1, 25)
		require.NoError(t, err)
		assert.Equal(t, 35, product.Quantity)
	})

	t.Run("over the limit", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("quantity <= $3")).
			WithArgs(domain.MaxQuantity, 1, 0).
			WillReturnRows(sqlmock.NewRows(productRowColumns))
		mock.ExpectQuery(sqlFragment("WHERE p.id = $1")).
			WithArgs(1).
			WillReturnRows(widgetRow(10))

		_, err := repo.IncreaseQuantity(ctx, 1, domain.MaxQuantity)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), "unexpected error: %v", err)
		assert.Equal(t, "amount", verr.Field)
	})

	t.Run("missing product", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("quantity <= $3")).
			WillReturnRows(sqlmock.NewRows(productRowColumns))
		mock.ExpectQuery(sqlFragment("WHERE p.id = $1")).
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		_, err := repo.IncreaseQuantity(ctx, 42, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("amount beyond any stock never reaches the database", func(t *testing.T) {
		sqlDB, _ := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		_, err := repo.IncreaseQuantity(ctx, 1, domain.MaxQuantity+1)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestPostgresListProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("escapes wildcard characters in the name filter", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment(`WHERE p.category_id = $1 AND p.name ILIKE $2 ESCAPE '\' ORDER BY p.id ASC`)).
			WithArgs(3, `%50\%\_off\\%`).
			WillReturnRows(widgetRow(2))

		products, err := repo.ListProducts(ctx, domain.ProductFilter{CategoryID: 3, NameContains: `50%_off\`})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Widget", products[0].Name)
	})

	t.Run("no filter", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresProductRepository(sqlDB, newTestLogger())

		mock.ExpectQuery(sqlFragment("ON c.id = p.category_id ORDER BY p.id ASC")).
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		products, err := repo.ListProducts(ctx, domain.ProductFilter{})
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})
}

func TestPostgresUpdateProductOutOfRange(t *testing.T) {
	sqlDB, mock := newMockDB(t)
	repo := NewPostgresProductRepository(sqlDB, newTestLogger())

	mock.ExpectQuery(sqlFragment("UPDATE products")).
		WillReturnError(&pq.Error{Code: pqNumericOutOfRange, Message: "numeric field overflow"})

	_, err := repo.UpdateProduct(context.Background(), 1, domain.ProductFields{Name: "Widget", CategoryID: 3})
	assert.True(t, domain.IsValidation(err))
}

func TestPostgresDeleteCategory(t *testing.T) {
	ctx := context.Background()
	deleteSQL := sqlFragment("AND NOT EXISTS (SELECT 1 FROM products WHERE category_id = $1)")
	selectSQL := sqlFragment("SELECT id, name, description FROM categories WHERE id = $1")

	t.Run("deletes an unreferenced category", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresCategoryRepository(sqlDB, newTestLogger())

		mock.ExpectExec(deleteSQL).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteCategory(ctx, 3))
	})

	t.Run("referenced category is kept", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresCategoryRepository(sqlDB, newTestLogger())

		mock.ExpectExec(deleteSQL).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(selectSQL).WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).AddRow(3, "Tools", ""))

		err := repo.DeleteCategory(ctx, 3)
		assert.True(t, domain.IsConstraint(err), "unexpected error: %v", err)
	})

	t.Run("missing category", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresCategoryRepository(sqlDB, newTestLogger())

		mock.ExpectExec(deleteSQL).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(selectSQL).WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}))

		assert.ErrorIs(t, repo.DeleteCategory(ctx, 9), domain.ErrNotFound)
	})

	t.Run("foreign key raced in", func(t *testing.T) {
		sqlDB, mock := newMockDB(t)
		repo := NewPostgresCategoryRepository(sqlDB, newTestLogger())

		mock.ExpectExec(deleteSQL).WithArgs(3).
			WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

		assert.True(t, domain.IsConstraint(repo.DeleteCategory(ctx, 3)))
	})
}
