package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/persistence/models"
)

// GormListingRepository implements integration.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// ---------------------------------------------------------------------------
// ListingReader implementation
// ---------------------------------------------------------------------------

// FindByID finds a ledger entry by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.PlatformListing, error) {
	var model models.PlatformListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrLedgerEntryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProduct finds all entries for a product, ordered by platform code
func (r *GormListingRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]integration.PlatformListing, error) {
	var listingModels []models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("platform_code ASC").
		Find(&listingModels).Error; err != nil {
		return nil, err
	}
	return toDomainListings(listingModels), nil
}

// FindByProductAndPlatform finds the entry for a (product, platform) pair
func (r *GormListingRepository) FindByProductAndPlatform(ctx context.Context, productID uuid.UUID, code integration.PlatformCode) (*integration.PlatformListing, error) {
	var model models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND platform_code = ?", productID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrLedgerEntryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds the entry for a platform listing ID
func (r *GormListingRepository) FindByExternalID(ctx context.Context, code integration.PlatformCode, externalID string) (*integration.PlatformListing, error) {
	var model models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		Where("platform_code = ? AND external_id = ?", code, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrLedgerEntryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ---------------------------------------------------------------------------
// ListingFinder implementation
// ---------------------------------------------------------------------------

// FindNeedingSync finds entries flagged for re-sync or in error state
func (r *GormListingRepository) FindNeedingSync(ctx context.Context) ([]integration.PlatformListing, error) {
	var listingModels []models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		Where("needs_sync = ? OR sync_status = ?", true, integration.SyncStatusError).
		Order("updated_at ASC").
		Find(&listingModels).Error; err != nil {
		return nil, err
	}
	return toDomainListings(listingModels), nil
}

// FindActiveByPlatform finds live entries for a platform
func (r *GormListingRepository) FindActiveByPlatform(ctx context.Context, code integration.PlatformCode) ([]integration.PlatformListing, error) {
	var listingModels []models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		Where("platform_code = ? AND platform_status = ?", code, integration.ListingStatusActive).
		Order("created_at ASC").
		Find(&listingModels).Error; err != nil {
		return nil, err
	}
	return toDomainListings(listingModels), nil
}

// ExistsByExternalID checks whether an entry exists for a platform listing ID
func (r *GormListingRepository) ExistsByExternalID(ctx context.Context, code integration.PlatformCode, externalID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PlatformListingModel{}).
		Where("platform_code = ? AND external_id = ?", code, externalID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByStatus aggregates entry counts per sync status
func (r *GormListingRepository) CountByStatus(ctx context.Context) (map[integration.SyncStatus]int64, error) {
	var rows []struct {
		SyncStatus integration.SyncStatus
		Count      int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PlatformListingModel{}).
		Select("sync_status, count(*) as count").
		Group("sync_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[integration.SyncStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.SyncStatus] = row.Count
	}
	return counts, nil
}

// CountByPlatform aggregates entry counts per platform and sync status
func (r *GormListingRepository) CountByPlatform(ctx context.Context) (map[integration.PlatformCode]map[integration.SyncStatus]int64, error) {
	var rows []struct {
		PlatformCode integration.PlatformCode
		SyncStatus   integration.SyncStatus
		Count        int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PlatformListingModel{}).
		Select("platform_code, sync_status, count(*) as count").
		Group("platform_code").
		Group("sync_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[integration.PlatformCode]map[integration.SyncStatus]int64)
	for _, row := range rows {
		if counts[row.PlatformCode] == nil {
			counts[row.PlatformCode] = make(map[integration.SyncStatus]int64)
		}
		counts[row.PlatformCode][row.SyncStatus] = row.Count
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// ListingWriter implementation
// ---------------------------------------------------------------------------

// Save creates or updates a ledger entry
func (r *GormListingRepository) Save(ctx context.Context, entry *integration.PlatformListing) error {
	model := models.PlatformListingModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// MarkStaleByProduct flags all non-terminal entries of a product for re-sync
func (r *GormListingRepository) MarkStaleByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PlatformListingModel{}).
		Where("product_id = ? AND platform_status NOT IN ?", productID,
			[]integration.ListingStatus{integration.ListingStatusSold, integration.ListingStatusDeleted}).
		Update("needs_sync", true).Error
}

// toDomainListings converts persistence models to domain entities
func toDomainListings(listingModels []models.PlatformListingModel) []integration.PlatformListing {
	listings := make([]integration.PlatformListing, len(listingModels))
	for i, model := range listingModels {
		listings[i] = *model.ToDomain()
	}
	return listings
}

// Ensure GormListingRepository implements integration.ListingRepository
var _ integration.ListingRepository = (*GormListingRepository)(nil)
