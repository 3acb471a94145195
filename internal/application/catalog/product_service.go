package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/catalog"
	"github.com/crosslist/backend/internal/domain/integration"
)

// CreateProductInput carries the fields for creating a product
type CreateProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	Brand       string
	Size        string
	Color       string
	Condition   string
	ImageURLs   []string
}

// UpdateProductInput carries the fields for updating a product
type UpdateProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	Brand       string
	Size        string
	Color       string
	Condition   string
	ImageURLs   []string
}

// ProductListResult is a page of products plus the total match count
type ProductListResult struct {
	Products []catalog.Product
	Total    int64
}

// ProductService handles product lifecycle use cases. Any change to listing
// fields flags the product's ledger entries stale so the next full sync
// pushes the change to the platforms.
type ProductService struct {
	products catalog.ProductRepository
	ledger   integration.ListingWriter
	logger   *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, ledger integration.ListingWriter, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products: products,
		ledger:   ledger,
		logger:   logger,
	}
}

// CreateProduct creates a new product in ACTIVE status
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*catalog.Product, error) {
	product, err := catalog.NewProduct(input.Title, input.Price)
	if err != nil {
		return nil, err
	}
	product.Description = input.Description
	product.SetAttributes(input.Category, input.Brand, input.Size, input.Color, input.Condition)
	product.SetImages(input.ImageURLs)

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to persist product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("title", product.Title),
	)
	return product, nil
}

// UpdateProduct updates a product's listing fields and flags its ledger
// entries for re-sync.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := product.Update(input.Title, input.Description, input.Price); err != nil {
		return nil, err
	}
	product.SetAttributes(input.Category, input.Brand, input.Size, input.Color, input.Condition)
	product.SetImages(input.ImageURLs)

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to persist product: %w", err)
	}

	if err := s.ledger.MarkStaleByProduct(ctx, product.ID); err != nil {
		return nil, fmt.Errorf("failed to flag ledger entries: %w", err)
	}

	s.logger.Info("product updated",
		zap.String("product_id", product.ID.String()),
	)
	return product, nil
}

// GetProduct returns one product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.products.FindByID(ctx, id)
}

// ListProducts returns a page of products matching the filter
func (s *ProductService) ListProducts(ctx context.Context, filter catalog.ProductFilter) (*ProductListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}

	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ProductListResult{Products: products, Total: total}, nil
}

// DeactivateProduct withdraws a product from sale. Its ledger entries are
// flagged so the next full sync takes the listings down.
func (s *ProductService) DeactivateProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to persist product: %w", err)
	}
	if err := s.ledger.MarkStaleByProduct(ctx, product.ID); err != nil {
		return nil, fmt.Errorf("failed to flag ledger entries: %w", err)
	}
	return product, nil
}

// ActivateProduct returns a pending or inactive product to sale
func (s *ProductService) ActivateProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Activate(); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to persist product: %w", err)
	}
	return product, nil
}
