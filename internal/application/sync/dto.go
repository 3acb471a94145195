package sync

import (
	"github.com/google/uuid"

	"github.com/crosslist/backend/internal/domain/integration"
)

// PlatformError records a failure scoped to one platform during a
// multi-platform operation. Failures never abort sibling platforms.
type PlatformError struct {
	// Platform is the platform the failure occurred on
	Platform integration.PlatformCode `json:"platform"`
	// ExternalID is the affected listing ID, when applicable
	ExternalID string `json:"external_id,omitempty"`
	// Message is the failure description
	Message string `json:"message"`
}

// ImportResult is the structured result of ImportFromPlatform
type ImportResult struct {
	// Platform is the platform that was imported from
	Platform integration.PlatformCode `json:"platform"`
	// Imported is the number of new products created
	Imported int `json:"imported"`
	// Skipped is the number of listings already present in the ledger
	Skipped int `json:"skipped"`
	// Errors contains per-listing failures
	Errors []PlatformError `json:"errors,omitempty"`
}

// CrossPostOutcome is the per-platform outcome of a cross-post
type CrossPostOutcome struct {
	// Platform is the target platform
	Platform integration.PlatformCode `json:"platform"`
	// SyncStatus is the resulting ledger status for this platform
	SyncStatus integration.SyncStatus `json:"sync_status"`
	// ExternalID is the created listing's ID on success
	ExternalID string `json:"external_id,omitempty"`
	// Error is the failure message on error
	Error string `json:"error,omitempty"`
}

// CrossPostResult is the structured result of CrossPost
type CrossPostResult struct {
	// ProductID is the cross-posted product
	ProductID uuid.UUID `json:"product_id"`
	// Outcomes contains one entry per requested platform, in request order
	Outcomes []CrossPostOutcome `json:"outcomes"`
}

// SoldItem describes one sale detected by CheckSold
type SoldItem struct {
	// ProductID is the product that sold
	ProductID uuid.UUID `json:"product_id"`
	// Title is the product title
	Title string `json:"title"`
	// Platform is the platform the sale was detected on
	Platform integration.PlatformCode `json:"platform"`
	// SaleID is the recorded sale, Nil when the sale was already recorded
	SaleID uuid.UUID `json:"sale_id,omitempty"`
}

// CheckSoldResult is the structured result of CheckSold
type CheckSoldResult struct {
	// Checked is the number of ledger entries inspected
	Checked int `json:"checked"`
	// Sold contains the detected sales
	Sold []SoldItem `json:"sold"`
	// SkippedProducts lists products skipped because another reconciliation
	// held their lock
	SkippedProducts []uuid.UUID `json:"skipped_products,omitempty"`
	// Errors contains per-platform failures
	Errors []PlatformError `json:"errors,omitempty"`
}

// SyncAllResult is the structured result of SyncAll
type SyncAllResult struct {
	// Total is the number of ledger entries that needed syncing
	Total int `json:"total"`
	// Synced is the number of entries successfully re-synced
	Synced int `json:"synced"`
	// Failed is the number of entries whose retry failed again
	Failed int `json:"failed"`
	// SkippedProducts lists products skipped because another reconciliation
	// held their lock
	SkippedProducts []uuid.UUID `json:"skipped_products,omitempty"`
	// Errors contains per-platform failures
	Errors []PlatformError `json:"errors,omitempty"`
}

// PlatformStats is the per-platform ledger breakdown
type PlatformStats struct {
	Total  int64 `json:"total"`
	Synced int64 `json:"synced"`
	Error  int64 `json:"error"`
	// Pending counts entries never synced
	Pending int64 `json:"pending"`
}

// LedgerStats aggregates ledger rows. A pure read, no side effects.
type LedgerStats struct {
	// Total is the total number of ledger entries
	Total int64 `json:"total"`
	// NeedsSync is the number of entries awaiting (re-)sync
	NeedsSync int64 `json:"needs_sync"`
	// Errors is the number of entries in error state
	Errors int64 `json:"errors"`
	// ByPlatform is the per-platform breakdown
	ByPlatform map[integration.PlatformCode]PlatformStats `json:"by_platform"`
}
