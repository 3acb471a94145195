package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/crosslist/backend/internal/domain/catalog"
	"github.com/crosslist/backend/internal/domain/shared"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func productRows(id uuid.UUID, title string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "price", "category", "brand", "size", "color", "condition", "image_urls", "status"}).
		AddRow(id, title, "", decimal.NewFromFloat(45.00), "Jackets", "Levi's", "M", "blue", "good", "[]", "active")
}

func TestNewGormProductRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(productID, 1).
			WillReturnRows(productRows(productID, "Vintage denim jacket"))

		product, err := repo.FindByID(context.Background(), productID)

		assert.NoError(t, err)
		assert.NotNil(t, product)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "Vintage denim jacket", product.Title)
		assert.Equal(t, "Levi's", product.Brand)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByID(context.Background(), productID)

		assert.Error(t, err)
		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindAll(t *testing.T) {
	t.Run("filters by status", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		status := catalog.ProductStatusActive

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE status = \$1 ORDER BY created_at DESC`).
			WithArgs(status).
			WillReturnRows(productRows(uuid.New(), "Vintage denim jacket"))

		products, err := repo.FindAll(context.Background(), catalog.ProductFilter{Status: &status})

		assert.NoError(t, err)
		assert.Len(t, products, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("searches title and brand case-insensitively", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE \(title ILIKE \$1 OR brand ILIKE \$2\) ORDER BY created_at DESC`).
			WithArgs("%denim%", "%denim%").
			WillReturnRows(productRows(uuid.New(), "Vintage denim jacket"))

		products, err := repo.FindAll(context.Background(), catalog.ProductFilter{SearchKeyword: "denim"})

		assert.NoError(t, err)
		assert.Len(t, products, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("escapes LIKE wildcards in the keyword", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE \(title ILIKE \$1 OR brand ILIKE \$2\) ORDER BY created_at DESC`).
			WithArgs(`%100\%%`, `%100\%%`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

		_, err := repo.FindAll(context.Background(), catalog.ProductFilter{SearchKeyword: "100%"})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" ORDER BY created_at DESC LIMIT .* OFFSET .*`).
			WithArgs(10, 10).
			WillReturnRows(productRows(uuid.New(), "Vintage denim jacket"))

		products, err := repo.FindAll(context.Background(), catalog.ProductFilter{Page: 2, PageSize: 10})

		assert.NoError(t, err)
		assert.Len(t, products, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByStatus(t *testing.T) {
	repo, mock, mockDB := newMockProductRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE status = \$1 ORDER BY created_at DESC`).
		WithArgs(catalog.ProductStatusSold).
		WillReturnRows(productRows(uuid.New(), "Vintage denim jacket"))

	products, err := repo.FindByStatus(context.Background(), catalog.ProductStatusSold)

	assert.NoError(t, err)
	assert.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductRepository_Count(t *testing.T) {
	t.Run("counts without pagination clauses", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		status := catalog.ProductStatusActive

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE status = \$1`).
			WithArgs(status).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.Count(context.Background(), catalog.ProductFilter{Status: &status, Page: 2, PageSize: 10})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
