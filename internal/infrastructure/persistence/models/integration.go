package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosslist/backend/internal/domain/integration"
)

// PlatformListingModel is the persistence model for the PlatformListing
// ledger entity. The (product_id, platform_code) pair is unique so the
// ledger can hold at most one row per product and platform.
type PlatformListingModel struct {
	ID             uuid.UUID                 `gorm:"type:uuid;primary_key"`
	ProductID      uuid.UUID                 `gorm:"type:uuid;not null;index:idx_platform_listings_product;uniqueIndex:idx_platform_listings_product_platform,priority:1"`
	PlatformCode   integration.PlatformCode  `gorm:"type:varchar(20);not null;index:idx_platform_listings_platform;uniqueIndex:idx_platform_listings_product_platform,priority:2"`
	ExternalID     string                    `gorm:"type:varchar(100);index:idx_platform_listings_external"`
	ListingURL     string                    `gorm:"type:varchar(500)"`
	PlatformStatus integration.ListingStatus `gorm:"type:varchar(20);not null;index"`
	SyncStatus     integration.SyncStatus    `gorm:"type:varchar(20);not null;index"`
	LastSyncedAt   *time.Time                `gorm:"index"`
	LastError      string                    `gorm:"type:text"`
	NeedsSync      bool                      `gorm:"not null;default:false;index"`
	CreatedAt      time.Time                 `gorm:"not null"`
	UpdatedAt      time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PlatformListingModel) TableName() string {
	return "platform_listings"
}

// ToDomain converts the persistence model to a domain PlatformListing entity.
func (m *PlatformListingModel) ToDomain() *integration.PlatformListing {
	return &integration.PlatformListing{
		ID:             m.ID,
		ProductID:      m.ProductID,
		PlatformCode:   m.PlatformCode,
		ExternalID:     m.ExternalID,
		ListingURL:     m.ListingURL,
		PlatformStatus: m.PlatformStatus,
		SyncStatus:     m.SyncStatus,
		LastSyncedAt:   m.LastSyncedAt,
		LastError:      m.LastError,
		NeedsSync:      m.NeedsSync,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain PlatformListing entity.
func (m *PlatformListingModel) FromDomain(l *integration.PlatformListing) {
	m.ID = l.ID
	m.ProductID = l.ProductID
	m.PlatformCode = l.PlatformCode
	m.ExternalID = l.ExternalID
	m.ListingURL = l.ListingURL
	m.PlatformStatus = l.PlatformStatus
	m.SyncStatus = l.SyncStatus
	m.LastSyncedAt = l.LastSyncedAt
	m.LastError = l.LastError
	m.NeedsSync = l.NeedsSync
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}

// PlatformListingModelFromDomain creates a new persistence model from a domain PlatformListing entity.
func PlatformListingModelFromDomain(l *integration.PlatformListing) *PlatformListingModel {
	m := &PlatformListingModel{}
	m.FromDomain(l)
	return m
}
