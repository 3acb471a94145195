package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/catalog"
	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/shared"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByStatus(ctx context.Context, status catalog.ProductStatus) ([]catalog.Product, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter catalog.ProductFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockListingWriter is a mock implementation of integration.ListingWriter
type MockListingWriter struct {
	mock.Mock
}

func (m *MockListingWriter) Save(ctx context.Context, entry *integration.PlatformListing) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockListingWriter) MarkStaleByProduct(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func TestProductService_CreateProduct(t *testing.T) {
	t.Run("creates product with attributes", func(t *testing.T) {
		repo := new(MockProductRepository)
		ledger := new(MockListingWriter)
		svc := NewProductService(repo, ledger, nil)

		repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

		product, err := svc.CreateProduct(context.Background(), CreateProductInput{
			Title:     "Nike Air Max 90",
			Price:     decimal.NewFromFloat(65.00),
			Brand:     "Nike",
			Size:      "42",
			Condition: "good",
			ImageURLs: []string{"https://img.example/1.jpg"},
		})
		require.NoError(t, err)

		assert.Equal(t, "Nike Air Max 90", product.Title)
		assert.Equal(t, "Nike", product.Brand)
		assert.Equal(t, catalog.ProductStatusActive, product.Status)
		ledger.AssertNotCalled(t, "MarkStaleByProduct", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, new(MockListingWriter), nil)

		_, err := svc.CreateProduct(context.Background(), CreateProductInput{
			Title: "  ",
			Price: decimal.NewFromInt(10),
		})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestProductService_UpdateProduct(t *testing.T) {
	t.Run("updates fields and flags ledger entries stale", func(t *testing.T) {
		repo := new(MockProductRepository)
		ledger := new(MockListingWriter)
		svc := NewProductService(repo, ledger, nil)

		existing, err := catalog.NewProduct("Old title", decimal.NewFromInt(10))
		require.NoError(t, err)

		repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
		repo.On("Save", mock.Anything, existing).Return(nil)
		ledger.On("MarkStaleByProduct", mock.Anything, existing.ID).Return(nil)

		updated, err := svc.UpdateProduct(context.Background(), existing.ID, UpdateProductInput{
			Title: "New title",
			Price: decimal.NewFromInt(15),
		})
		require.NoError(t, err)

		assert.Equal(t, "New title", updated.Title)
		ledger.AssertCalled(t, "MarkStaleByProduct", mock.Anything, existing.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, new(MockListingWriter), nil)

		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.UpdateProduct(context.Background(), id, UpdateProductInput{
			Title: "Anything",
			Price: decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProductService_ListProducts(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo, new(MockListingWriter), nil)

	product, err := catalog.NewProduct("Jacket", decimal.NewFromInt(20))
	require.NoError(t, err)

	repo.On("FindAll", mock.Anything, mock.Anything).Return([]catalog.Product{*product}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	result, err := svc.ListProducts(context.Background(), catalog.ProductFilter{Page: 0, PageSize: 0})
	require.NoError(t, err)

	assert.Len(t, result.Products, 1)
	assert.Equal(t, int64(1), result.Total)

	// defaults applied to the filter passed through
	filter := repo.Calls[0].Arguments.Get(1).(catalog.ProductFilter)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 50, filter.PageSize)
}

func TestProductService_DeactivateProduct(t *testing.T) {
	t.Run("deactivates and flags ledger entries", func(t *testing.T) {
		repo := new(MockProductRepository)
		ledger := new(MockListingWriter)
		svc := NewProductService(repo, ledger, nil)

		product, err := catalog.NewProduct("Jacket", decimal.NewFromInt(20))
		require.NoError(t, err)

		repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		repo.On("Save", mock.Anything, product).Return(nil)
		ledger.On("MarkStaleByProduct", mock.Anything, product.ID).Return(nil)

		deactivated, err := svc.DeactivateProduct(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Equal(t, catalog.ProductStatusInactive, deactivated.Status)
	})

	t.Run("sold product cannot be deactivated", func(t *testing.T) {
		repo := new(MockProductRepository)
		ledger := new(MockListingWriter)
		svc := NewProductService(repo, ledger, nil)

		product, err := catalog.NewProduct("Jacket", decimal.NewFromInt(20))
		require.NoError(t, err)
		require.NoError(t, product.MarkSold())

		repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		_, err = svc.DeactivateProduct(context.Background(), product.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		ledger.AssertNotCalled(t, "MarkStaleByProduct", mock.Anything, mock.Anything)
	})
}
