package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/sales"
	"github.com/crosslist/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Save creates or updates a sale
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrSaleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProduct finds all sales for a product
func (r *GormSaleRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]sales.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sold_at DESC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// FindAll finds all sales, newest first
func (r *GormSaleRepository) FindAll(ctx context.Context) ([]sales.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Order("sold_at DESC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// ExistsByProductAndPlatform checks whether a sale was already recorded for
// the (product, platform) pair
func (r *GormSaleRepository) ExistsByProductAndPlatform(ctx context.Context, productID uuid.UUID, code integration.PlatformCode) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("product_id = ? AND platform_code = ?", productID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindUnsynced finds sales not yet forwarded to the accounting sink
func (r *GormSaleRepository) FindUnsynced(ctx context.Context) ([]sales.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("synced_to_accounting = ?", false).
		Order("sold_at ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// toDomainSales converts persistence models to domain entities
func toDomainSales(saleModels []models.SaleModel) []sales.Sale {
	result := make([]sales.Sale, len(saleModels))
	for i, model := range saleModels {
		result[i] = *model.ToDomain()
	}
	return result
}

// Ensure GormSaleRepository implements sales.SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
