package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// PlatformListing Entity
// ---------------------------------------------------------------------------

// PlatformListing is a ledger entry recording the sync state of one product
// on one platform. There is at most one entry per (product, platform) pair.
// Entries are never physically deleted: a removed listing is marked deleted
// so the audit trail survives.
type PlatformListing struct {
	// ID is the unique identifier of this ledger entry
	ID uuid.UUID
	// ProductID is the local product this entry belongs to
	ProductID uuid.UUID
	// PlatformCode identifies which platform this entry is for
	PlatformCode PlatformCode
	// ExternalID is the listing ID on the platform, empty until created there
	ExternalID string
	// ListingURL is the public listing URL, when known
	ListingURL string
	// PlatformStatus is the listing status as last observed on the platform
	PlatformStatus ListingStatus
	// SyncStatus is the outcome of the last sync attempt
	SyncStatus SyncStatus
	// LastSyncedAt is when this entry was last successfully synced
	LastSyncedAt *time.Time
	// LastError contains the error message from the last failed sync attempt
	LastError string
	// NeedsSync marks the entry for pickup by the next full sync
	NeedsSync bool
	// CreatedAt is when this entry was created
	CreatedAt time.Time
	// UpdatedAt is when this entry was last updated
	UpdatedAt time.Time
}

// NewPlatformListing creates a new pending ledger entry for a product that
// is about to be cross-posted to a platform.
func NewPlatformListing(productID uuid.UUID, code PlatformCode) (*PlatformListing, error) {
	if productID == uuid.Nil {
		return nil, ErrInvalidProductID
	}
	if !code.IsValid() {
		return nil, ErrInvalidPlatformCode
	}

	now := time.Now()
	return &PlatformListing{
		ID:             uuid.New(),
		ProductID:      productID,
		PlatformCode:   code,
		PlatformStatus: ListingStatusPending,
		SyncStatus:     SyncStatusPending,
		NeedsSync:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewImportedPlatformListing creates a synced ledger entry for a listing
// that already exists on the platform (import path).
func NewImportedPlatformListing(productID uuid.UUID, code PlatformCode, externalID, listingURL string) (*PlatformListing, error) {
	if externalID == "" {
		return nil, ErrInvalidExternalID
	}

	entry, err := NewPlatformListing(productID, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry.ExternalID = externalID
	entry.ListingURL = listingURL
	entry.PlatformStatus = ListingStatusActive
	entry.SyncStatus = SyncStatusSynced
	entry.LastSyncedAt = &now
	entry.NeedsSync = false
	return entry, nil
}

// Validate validates the ledger entry
func (l *PlatformListing) Validate() error {
	if l.ProductID == uuid.Nil {
		return ErrInvalidProductID
	}
	if !l.PlatformCode.IsValid() {
		return ErrInvalidPlatformCode
	}
	return nil
}

// RecordSyncSuccess records a successful create or update on the platform.
// An empty externalID keeps the previously stored one.
func (l *PlatformListing) RecordSyncSuccess(externalID, listingURL string) {
	now := time.Now()
	if externalID != "" {
		l.ExternalID = externalID
	}
	if listingURL != "" {
		l.ListingURL = listingURL
	}
	l.PlatformStatus = ListingStatusActive
	l.SyncStatus = SyncStatusSynced
	l.LastSyncedAt = &now
	l.LastError = ""
	l.NeedsSync = false
	l.UpdatedAt = now
}

// RecordSyncFailure records a failed sync attempt. The entry stays flagged
// for retry by the next full sync.
func (l *PlatformListing) RecordSyncFailure(errMsg string) {
	now := time.Now()
	l.SyncStatus = SyncStatusError
	l.LastError = errMsg
	l.NeedsSync = true
	l.UpdatedAt = now
}

// MarkSold records that the platform confirmed the listing as sold
func (l *PlatformListing) MarkSold() {
	now := time.Now()
	l.PlatformStatus = ListingStatusSold
	l.SyncStatus = SyncStatusSynced
	l.LastSyncedAt = &now
	l.LastError = ""
	l.NeedsSync = false
	l.UpdatedAt = now
}

// MarkDeleted records that the listing was removed from the platform
func (l *PlatformListing) MarkDeleted() {
	now := time.Now()
	l.PlatformStatus = ListingStatusDeleted
	l.SyncStatus = SyncStatusSynced
	l.LastSyncedAt = &now
	l.NeedsSync = false
	l.UpdatedAt = now
}

// MarkStale flags the entry for re-sync after the local product changed
func (l *PlatformListing) MarkStale() {
	l.NeedsSync = true
	l.UpdatedAt = time.Now()
}

// IsActive returns true if the listing is live on the platform
func (l *PlatformListing) IsActive() bool {
	return l.PlatformStatus == ListingStatusActive
}

// IsTerminal returns true if the listing reached a sold or deleted state
func (l *PlatformListing) IsTerminal() bool {
	return l.PlatformStatus.IsTerminal()
}

// ---------------------------------------------------------------------------
// Ledger Repository Interfaces
// ---------------------------------------------------------------------------

// ListingReader defines the interface for reading single ledger entries
type ListingReader interface {
	// FindByID finds a ledger entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PlatformListing, error)

	// FindByProduct finds all entries for a product, ordered by platform code
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]PlatformListing, error)

	// FindByProductAndPlatform finds the entry for a (product, platform) pair
	FindByProductAndPlatform(ctx context.Context, productID uuid.UUID, code PlatformCode) (*PlatformListing, error)

	// FindByExternalID finds the entry for a platform listing ID
	FindByExternalID(ctx context.Context, code PlatformCode, externalID string) (*PlatformListing, error)
}

// ListingFinder defines the interface for ledger queries
type ListingFinder interface {
	// FindNeedingSync finds entries flagged for re-sync or in error state
	FindNeedingSync(ctx context.Context) ([]PlatformListing, error)

	// FindActiveByPlatform finds live entries for a platform
	FindActiveByPlatform(ctx context.Context, code PlatformCode) ([]PlatformListing, error)

	// ExistsByExternalID checks whether an entry exists for a platform listing ID
	ExistsByExternalID(ctx context.Context, code PlatformCode, externalID string) (bool, error)

	// CountByStatus aggregates entry counts per sync status
	CountByStatus(ctx context.Context) (map[SyncStatus]int64, error)

	// CountByPlatform aggregates entry counts per platform and sync status
	CountByPlatform(ctx context.Context) (map[PlatformCode]map[SyncStatus]int64, error)
}

// ListingWriter defines the interface for persisting ledger entries.
// Saves must be atomic per (product, platform) key.
type ListingWriter interface {
	// Save creates or updates a ledger entry
	Save(ctx context.Context, entry *PlatformListing) error

	// MarkStaleByProduct flags all non-terminal entries of a product for re-sync
	MarkStaleByProduct(ctx context.Context, productID uuid.UUID) error
}

// ListingRepository defines the full ledger persistence interface
type ListingRepository interface {
	ListingReader
	ListingFinder
	ListingWriter
}
