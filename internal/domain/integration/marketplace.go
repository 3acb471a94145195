package integration

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformNotRegistered   = errors.New("integration: platform not registered")
	ErrAuthenticationFailed    = errors.New("integration: platform authentication failed")
	ErrAdapterTimeout          = errors.New("integration: platform request timed out")
	ErrAdapterRejected         = errors.New("integration: platform rejected the request")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrInvalidPlatformResponse = errors.New("integration: invalid platform response")

	// Listing errors
	ErrListingNotFound = errors.New("integration: listing not found on platform")
	ErrAlreadyListed   = errors.New("integration: product already listed on platform")

	// Ledger errors
	ErrLedgerEntryNotFound = errors.New("integration: ledger entry not found")
	ErrLedgerEntryExists   = errors.New("integration: ledger entry already exists")
	ErrInvalidProductID    = errors.New("integration: invalid product ID")
	ErrInvalidPlatformCode = errors.New("integration: invalid platform code")
	ErrInvalidExternalID   = errors.New("integration: invalid external listing ID")
	ErrLedgerEntryTerminal = errors.New("integration: ledger entry is in a terminal state")
	ErrSyncInProgress      = errors.New("integration: another sync is in flight for this product")
)

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies an external marketplace
type PlatformCode string

const (
	// PlatformCodeMarktplaats represents Marktplaats (OAuth2 API integration)
	PlatformCodeMarktplaats PlatformCode = "MARKTPLAATS"
	// PlatformCodeVinted represents Vinted (automated browser session)
	PlatformCodeVinted PlatformCode = "VINTED"
	// PlatformCodeDepop represents Depop (automated browser session)
	PlatformCodeDepop PlatformCode = "DEPOP"
	// PlatformCodeFacebook represents Facebook Marketplace (automated browser session)
	PlatformCodeFacebook PlatformCode = "FACEBOOK"
)

// AllPlatformCodes returns every supported platform in canonical order.
// This order is also the default processing order for multi-platform
// operations.
func AllPlatformCodes() []PlatformCode {
	return []PlatformCode{
		PlatformCodeMarktplaats,
		PlatformCodeVinted,
		PlatformCodeDepop,
		PlatformCodeFacebook,
	}
}

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeMarktplaats, PlatformCodeVinted, PlatformCodeDepop, PlatformCodeFacebook:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeMarktplaats:
		return "Marktplaats"
	case PlatformCodeVinted:
		return "Vinted"
	case PlatformCodeDepop:
		return "Depop"
	case PlatformCodeFacebook:
		return "Facebook Marketplace"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// ListingStatus
// ---------------------------------------------------------------------------

// ListingStatus represents the status of a listing as seen on the platform
type ListingStatus string

const (
	// ListingStatusActive indicates the listing is live and purchasable
	ListingStatusActive ListingStatus = "active"
	// ListingStatusSold indicates the platform reports the item as sold
	ListingStatusSold ListingStatus = "sold"
	// ListingStatusPending indicates the listing is awaiting platform review
	ListingStatusPending ListingStatus = "pending"
	// ListingStatusDeleted indicates the listing was removed from the platform
	ListingStatusDeleted ListingStatus = "deleted"
	// ListingStatusError indicates the listing is in an unusable state
	ListingStatusError ListingStatus = "error"
)

// IsValid returns true if the status is valid
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusSold, ListingStatusPending,
		ListingStatusDeleted, ListingStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of ListingStatus
func (s ListingStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the listing can no longer transition
func (s ListingStatus) IsTerminal() bool {
	return s == ListingStatusSold || s == ListingStatusDeleted
}

// ---------------------------------------------------------------------------
// SyncStatus
// ---------------------------------------------------------------------------

// SyncStatus represents the synchronization status of a ledger entry
type SyncStatus string

const (
	// SyncStatusPending indicates the entry has never been synced
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusSynced indicates the last sync attempt succeeded
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusError indicates the last sync attempt failed
	SyncStatusError SyncStatus = "error"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SoldSignal
// ---------------------------------------------------------------------------

// SoldSignal declares which detection signal an adapter uses for sold
// detection. Platforms expose either a reliable per-listing status or a
// sales feed, rarely both; each adapter commits to exactly one.
type SoldSignal string

const (
	// SoldSignalStatusPoll means sold items are detected via CheckListingStatus
	SoldSignalStatusPoll SoldSignal = "status_poll"
	// SoldSignalSalesFeed means sold items are detected via FetchSales
	SoldSignalSalesFeed SoldSignal = "sales_feed"
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// ListingDraft carries the product fields an adapter needs to create or
// update a listing on its platform.
type ListingDraft struct {
	// Title is the listing title
	Title string
	// Description is the listing body text
	Description string
	// Price is the asking price
	Price decimal.Decimal
	// Category is the local category name; adapters map it to platform taxonomy
	Category string
	// Brand is the product brand
	Brand string
	// Size is the product size label
	Size string
	// Color is the dominant color
	Color string
	// Condition describes the item condition
	Condition string
	// ImageURLs contains the product images, first image is the cover
	ImageURLs []string
}

// ExternalListing represents a listing as reported by a platform
type ExternalListing struct {
	// ExternalID is the listing ID assigned by the platform
	ExternalID string
	// Title is the listing title on the platform
	Title string
	// Description is the listing body text
	Description string
	// Price is the asking price on the platform
	Price decimal.Decimal
	// URL is the public listing URL
	URL string
	// Status is the listing status on the platform
	Status ListingStatus
	// Category is the platform category, best-effort normalized
	Category string
	// Brand is the brand reported by the platform
	Brand string
	// Size is the size label reported by the platform
	Size string
	// Condition is the condition reported by the platform
	Condition string
	// ImageURLs contains listing image URLs
	ImageURLs []string
}

// PlatformSale represents a sale event reported by a platform
type PlatformSale struct {
	// ExternalID is the sold listing's ID on the platform
	ExternalID string
	// SalePrice is the price the item sold for
	SalePrice decimal.Decimal
	// PlatformFee is the platform's commission, zero when unknown
	PlatformFee decimal.Decimal
	// ShippingCost is the shipping charge borne by the seller, zero when unknown
	ShippingCost decimal.Decimal
	// BuyerName is the buyer's display name, empty when the platform hides it
	BuyerName string
	// SoldAt is when the sale happened on the platform
	SoldAt time.Time
}

// ---------------------------------------------------------------------------
// MarketplaceAdapter Port Interface
// ---------------------------------------------------------------------------

// MarketplaceAdapter defines the port interface for external marketplaces.
// It is defined in the domain layer; concrete implementations (Marktplaats
// OAuth2 API, Vinted/Depop/Facebook browser sessions) live in the
// infrastructure layer.
//
// Every call may fail independently. Failures are surfaced as errors
// (wrapping the sentinel errors above where the cause is known) and must
// never abort the caller's processing of sibling platforms. Timeouts are
// enforced inside the adapter and surface as ErrAdapterTimeout.
type MarketplaceAdapter interface {
	// PlatformCode returns the platform this adapter handles
	PlatformCode() PlatformCode

	// SoldSignal returns the sold-detection signal this adapter supports
	SoldSignal() SoldSignal

	// Authenticate establishes a usable session with the platform
	Authenticate(ctx context.Context) error

	// ListListings returns the seller's current listings on the platform.
	// The slice is complete for the account; restarting the call re-reads
	// platform state from the beginning.
	ListListings(ctx context.Context) ([]ExternalListing, error)

	// CreateListing publishes a new listing and returns its external ID
	CreateListing(ctx context.Context, draft ListingDraft) (string, error)

	// UpdateListing updates an existing listing in place
	UpdateListing(ctx context.Context, externalID string, draft ListingDraft) error

	// DeleteListing removes a listing from the platform
	DeleteListing(ctx context.Context, externalID string) error

	// MarkAsSold marks a listing as sold on the platform
	MarkAsSold(ctx context.Context, externalID string) error

	// CheckListingStatus returns the current status of a listing
	CheckListingStatus(ctx context.Context, externalID string) (ListingStatus, error)

	// FetchSales returns sales reported by the platform since the given time.
	// A zero time means all available sales.
	FetchSales(ctx context.Context, since time.Time) ([]PlatformSale, error)
}

// AdapterRegistry provides access to the configured marketplace adapters.
// Registration order is the fixed processing order for multi-platform
// operations.
type AdapterRegistry interface {
	// Get returns the adapter for the given platform code
	Get(code PlatformCode) (MarketplaceAdapter, error)

	// List returns all registered adapters in registration order
	List() []MarketplaceAdapter

	// Codes returns the registered platform codes in registration order
	Codes() []PlatformCode
}
