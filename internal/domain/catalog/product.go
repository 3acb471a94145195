package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	// ProductStatusActive indicates the product is listed for sale
	ProductStatusActive ProductStatus = "active"
	// ProductStatusSold indicates the product was sold on at least one platform
	ProductStatusSold ProductStatus = "sold"
	// ProductStatusPending indicates the product is being prepared for listing
	ProductStatusPending ProductStatus = "pending"
	// ProductStatusInactive indicates the product was withdrawn from sale
	ProductStatusInactive ProductStatus = "inactive"
)

// IsValid returns true if the status is valid
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusSold, ProductStatusPending, ProductStatusInactive:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// Product is the canonical record of an item being sold across platforms.
// It is the aggregate root for catalog operations; platform-specific state
// lives in the integration ledger, never here.
type Product struct {
	ID          uuid.UUID
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	Brand       string
	Size        string
	Color       string
	Condition   string
	ImageURLs   []string
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct creates a new product in ACTIVE status
func NewProduct(title string, price decimal.Decimal) (*Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Product title is required")
	}
	if len(title) > 255 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Product title cannot exceed 255 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	now := time.Now()
	return &Product{
		ID:        uuid.New(),
		Title:     title,
		Price:     price,
		ImageURLs: make([]string, 0),
		Status:    ProductStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update updates the product's listing fields. The bumped UpdatedAt is what
// marks existing ledger rows stale relative to their LastSyncedAt.
func (p *Product) Update(title, description string, price decimal.Decimal) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Product title is required")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	p.Title = title
	p.Description = description
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

// SetAttributes sets the descriptive attributes used when publishing listings
func (p *Product) SetAttributes(category, brand, size, color, condition string) {
	p.Category = category
	p.Brand = brand
	p.Size = size
	p.Color = color
	p.Condition = condition
	p.UpdatedAt = time.Now()
}

// SetImages replaces the product's image set
func (p *Product) SetImages(urls []string) {
	p.ImageURLs = make([]string, len(urls))
	copy(p.ImageURLs, urls)
	p.UpdatedAt = time.Now()
}

// MarkSold transitions the product to SOLD. Only the orchestrator calls this,
// after a platform confirmed the sale.
func (p *Product) MarkSold() error {
	if p.Status == ProductStatusSold {
		return shared.ErrInvalidState
	}
	p.Status = ProductStatusSold
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate withdraws the product from sale without deleting it
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusSold {
		return shared.ErrInvalidState
	}
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	return nil
}

// Activate returns a pending or inactive product to sale
func (p *Product) Activate() error {
	if p.Status == ProductStatusSold {
		return shared.ErrInvalidState
	}
	p.Status = ProductStatusActive
	p.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the product is currently for sale
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
