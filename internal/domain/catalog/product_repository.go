package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductFilter defines filter criteria for product queries
type ProductFilter struct {
	// Status filters by product status (optional)
	Status *ProductStatus
	// SearchKeyword searches in title and brand (optional)
	SearchKeyword string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)

	// FindByStatus finds all products with the given status
	FindByStatus(ctx context.Context, status ProductStatus) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter ProductFilter) (int64, error)
}
