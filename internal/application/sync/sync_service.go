package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/catalog"
	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/sales"
	"github.com/crosslist/backend/internal/domain/shared"
)

// SaleRecorder is the slice of the sales recorder the orchestrator needs.
// Persisting the sale is fatal on failure; forwarding to the accounting
// sink is best-effort inside the recorder.
type SaleRecorder interface {
	RecordSale(ctx context.Context, sale *sales.Sale, productTitle string) error
}

// SyncService drives reconciliation between the canonical product catalog
// and the external marketplaces: import, cross-post, sold detection and
// full re-sync. It is the only writer of ledger state.
//
// Platforms are processed in registry order. Per-product mutual exclusion
// is enforced through the ProductLocker; a product whose lock is held is
// skipped and reported, never processed twice.
type SyncService struct {
	products catalog.ProductRepository
	ledger   integration.ListingRepository
	sales    sales.SaleRepository
	registry integration.AdapterRegistry
	recorder SaleRecorder
	locks    ProductLocker
	logger   *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	products catalog.ProductRepository,
	ledger integration.ListingRepository,
	saleRepo sales.SaleRepository,
	registry integration.AdapterRegistry,
	recorder SaleRecorder,
	locks ProductLocker,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		products: products,
		ledger:   ledger,
		sales:    saleRepo,
		registry: registry,
		recorder: recorder,
		locks:    locks,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// ImportFromPlatform
// ---------------------------------------------------------------------------

// ImportFromPlatform pulls the seller's current listings from one platform
// and creates a product plus a synced ledger entry for every listing not
// yet known. Re-importing is idempotent: duplicate detection keys on
// (platform, external id) and existing entries are left untouched.
func (s *SyncService) ImportFromPlatform(ctx context.Context, code integration.PlatformCode) (*ImportResult, error) {
	adapter, err := s.registry.Get(code)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Platform: code}

	if err := adapter.Authenticate(ctx); err != nil {
		result.Errors = append(result.Errors, PlatformError{Platform: code, Message: err.Error()})
		return result, nil
	}

	listings, err := adapter.ListListings(ctx)
	if err != nil {
		result.Errors = append(result.Errors, PlatformError{Platform: code, Message: err.Error()})
		return result, nil
	}

	for _, ext := range listings {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if ext.ExternalID == "" {
			result.Errors = append(result.Errors, PlatformError{
				Platform: code,
				Message:  "platform returned a listing without an ID",
			})
			continue
		}

		exists, err := s.ledger.ExistsByExternalID(ctx, code, ext.ExternalID)
		if err != nil {
			return result, fmt.Errorf("ledger lookup failed: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}

		product, err := catalog.NewProduct(ext.Title, ext.Price)
		if err != nil {
			result.Errors = append(result.Errors, PlatformError{
				Platform:   code,
				ExternalID: ext.ExternalID,
				Message:    err.Error(),
			})
			continue
		}
		product.Description = ext.Description
		product.SetAttributes(ext.Category, ext.Brand, ext.Size, "", ext.Condition)
		product.SetImages(ext.ImageURLs)

		if err := s.products.Save(ctx, product); err != nil {
			return result, fmt.Errorf("failed to persist imported product: %w", err)
		}

		entry, err := integration.NewImportedPlatformListing(product.ID, code, ext.ExternalID, ext.URL)
		if err != nil {
			result.Errors = append(result.Errors, PlatformError{
				Platform:   code,
				ExternalID: ext.ExternalID,
				Message:    err.Error(),
			})
			continue
		}
		if err := s.ledger.Save(ctx, entry); err != nil {
			return result, fmt.Errorf("failed to persist ledger entry: %w", err)
		}

		result.Imported++
		s.logger.Info("imported listing",
			zap.String("platform", code.String()),
			zap.String("external_id", ext.ExternalID),
			zap.String("product_id", product.ID.String()),
		)
	}

	return result, nil
}

// ---------------------------------------------------------------------------
// CrossPost
// ---------------------------------------------------------------------------

// CrossPost publishes a product to each requested platform it is not yet
// listed on. An empty platform list means every registered platform.
// Platforms are processed independently in request order; a
// failure on one is recorded in that platform's ledger row and does not
// block the others.
func (s *SyncService) CrossPost(ctx context.Context, productID uuid.UUID, codes []integration.PlatformCode) (*CrossPostResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, shared.ErrInvalidState
	}

	acquired, err := s.locks.TryLock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, integration.ErrSyncInProgress
	}
	defer func() {
		if err := s.locks.Unlock(ctx, productID); err != nil {
			s.logger.Warn("failed to release product lock", zap.String("product_id", productID.String()), zap.Error(err))
		}
	}()

	if len(codes) == 0 {
		codes = s.registry.Codes()
	}

	result := &CrossPostResult{ProductID: productID}
	draft := draftFromProduct(product)

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome, err := s.crossPostOne(ctx, product, draft, code)
		if err != nil {
			return result, err
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// crossPostOne posts to a single platform. Only storage failures return an
// error; adapter failures are folded into the outcome and the ledger row.
func (s *SyncService) crossPostOne(
	ctx context.Context,
	product *catalog.Product,
	draft integration.ListingDraft,
	code integration.PlatformCode,
) (CrossPostOutcome, error) {
	outcome := CrossPostOutcome{Platform: code}

	if !code.IsValid() {
		outcome.SyncStatus = integration.SyncStatusError
		outcome.Error = integration.ErrInvalidPlatformCode.Error()
		return outcome, nil
	}

	entry, err := s.ledger.FindByProductAndPlatform(ctx, product.ID, code)
	switch {
	case err == nil:
		if entry.ExternalID != "" && !entry.IsTerminal() {
			outcome.SyncStatus = entry.SyncStatus
			outcome.ExternalID = entry.ExternalID
			outcome.Error = integration.ErrAlreadyListed.Error()
			return outcome, nil
		}
		if entry.IsTerminal() {
			// A sold or deleted row stays as audit trail; a relist gets a
			// fresh create attempt on the same row.
			entry.ExternalID = ""
		}
	case errors.Is(err, integration.ErrLedgerEntryNotFound):
		entry, err = integration.NewPlatformListing(product.ID, code)
		if err != nil {
			outcome.SyncStatus = integration.SyncStatusError
			outcome.Error = err.Error()
			return outcome, nil
		}
	default:
		return outcome, fmt.Errorf("ledger lookup failed: %w", err)
	}

	adapter, regErr := s.registry.Get(code)
	if regErr != nil {
		entry.RecordSyncFailure(regErr.Error())
		if err := s.ledger.Save(ctx, entry); err != nil {
			return outcome, fmt.Errorf("failed to persist ledger entry: %w", err)
		}
		outcome.SyncStatus = integration.SyncStatusError
		outcome.Error = regErr.Error()
		return outcome, nil
	}

	externalID, createErr := adapter.CreateListing(ctx, draft)
	if createErr != nil {
		entry.RecordSyncFailure(createErr.Error())
		outcome.SyncStatus = integration.SyncStatusError
		outcome.Error = createErr.Error()
		s.logger.Warn("cross-post failed",
			zap.String("platform", code.String()),
			zap.String("product_id", product.ID.String()),
			zap.Error(createErr),
		)
	} else {
		entry.RecordSyncSuccess(externalID, "")
		outcome.SyncStatus = integration.SyncStatusSynced
		outcome.ExternalID = externalID
		s.logger.Info("cross-posted product",
			zap.String("platform", code.String()),
			zap.String("product_id", product.ID.String()),
			zap.String("external_id", externalID),
		)
	}

	if err := s.ledger.Save(ctx, entry); err != nil {
		return outcome, fmt.Errorf("failed to persist ledger entry: %w", err)
	}
	return outcome, nil
}

// ---------------------------------------------------------------------------
// CheckSold
// ---------------------------------------------------------------------------

// CheckSold polls every platform with live ledger entries for sold items,
// using each adapter's declared sold signal. A detected sale records a Sale
// exactly once, flips the product to SOLD before any propagation call, then
// drives the product's remaining listings toward a terminal state on their
// platforms, best-effort and in registry order.
func (s *SyncService) CheckSold(ctx context.Context) (*CheckSoldResult, error) {
	result := &CheckSoldResult{}

	for _, adapter := range s.registry.List() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		code := adapter.PlatformCode()

		entries, err := s.ledger.FindActiveByPlatform(ctx, code)
		if err != nil {
			return result, fmt.Errorf("ledger query failed: %w", err)
		}
		if len(entries) == 0 {
			continue
		}

		switch adapter.SoldSignal() {
		case integration.SoldSignalSalesFeed:
			s.checkSoldViaSalesFeed(ctx, adapter, entries, result)
		default:
			s.checkSoldViaStatusPoll(ctx, adapter, entries, result)
		}
	}

	return result, nil
}

// checkSoldViaSalesFeed matches the platform's sales feed against live
// ledger entries.
func (s *SyncService) checkSoldViaSalesFeed(
	ctx context.Context,
	adapter integration.MarketplaceAdapter,
	entries []integration.PlatformListing,
	result *CheckSoldResult,
) {
	code := adapter.PlatformCode()
	feed, err := adapter.FetchSales(ctx, time.Time{})
	if err != nil {
		result.Errors = append(result.Errors, PlatformError{Platform: code, Message: err.Error()})
		return
	}

	soldByID := make(map[string]integration.PlatformSale, len(feed))
	for _, sale := range feed {
		soldByID[sale.ExternalID] = sale
	}

	for i := range entries {
		if ctx.Err() != nil {
			return
		}
		entry := entries[i]
		result.Checked++
		sale, ok := soldByID[entry.ExternalID]
		if !ok {
			continue
		}
		if err := s.handleSoldListing(ctx, &entry, &sale, result); err != nil {
			result.Errors = append(result.Errors, PlatformError{
				Platform:   code,
				ExternalID: entry.ExternalID,
				Message:    err.Error(),
			})
		}
	}
}

// checkSoldViaStatusPoll polls CheckListingStatus for every live entry.
func (s *SyncService) checkSoldViaStatusPoll(
	ctx context.Context,
	adapter integration.MarketplaceAdapter,
	entries []integration.PlatformListing,
	result *CheckSoldResult,
) {
	code := adapter.PlatformCode()

	for i := range entries {
		if ctx.Err() != nil {
			return
		}
		entry := entries[i]
		if entry.ExternalID == "" {
			continue
		}
		result.Checked++

		status, err := adapter.CheckListingStatus(ctx, entry.ExternalID)
		if err != nil {
			result.Errors = append(result.Errors, PlatformError{
				Platform:   code,
				ExternalID: entry.ExternalID,
				Message:    err.Error(),
			})
			continue
		}
		if status != integration.ListingStatusSold {
			continue
		}
		if err := s.handleSoldListing(ctx, &entry, nil, result); err != nil {
			result.Errors = append(result.Errors, PlatformError{
				Platform:   code,
				ExternalID: entry.ExternalID,
				Message:    err.Error(),
			})
		}
	}
}

// handleSoldListing performs the sale reconciliation for one sold ledger
// entry: record the sale, flip the product, propagate to sibling platforms,
// forward to the sales recorder. platformSale is nil when the platform only
// reports a sold status without sale details.
func (s *SyncService) handleSoldListing(
	ctx context.Context,
	entry *integration.PlatformListing,
	platformSale *integration.PlatformSale,
	result *CheckSoldResult,
) error {
	acquired, err := s.locks.TryLock(ctx, entry.ProductID)
	if err != nil {
		return err
	}
	if !acquired {
		result.SkippedProducts = append(result.SkippedProducts, entry.ProductID)
		return nil
	}
	defer func() {
		if err := s.locks.Unlock(ctx, entry.ProductID); err != nil {
			s.logger.Warn("failed to release product lock", zap.String("product_id", entry.ProductID.String()), zap.Error(err))
		}
	}()

	product, err := s.products.FindByID(ctx, entry.ProductID)
	if err != nil {
		return fmt.Errorf("product lookup failed: %w", err)
	}

	// The same underlying sale may be detected by overlapping CheckSold runs;
	// the (product, platform) existence check keeps the Sale unique.
	alreadyRecorded, err := s.sales.ExistsByProductAndPlatform(ctx, entry.ProductID, entry.PlatformCode)
	if err != nil {
		return fmt.Errorf("sale lookup failed: %w", err)
	}

	var sale *sales.Sale
	if !alreadyRecorded {
		price := product.Price
		soldAt := time.Time{}
		if platformSale != nil {
			price = platformSale.SalePrice
			soldAt = platformSale.SoldAt
		}
		sale, err = sales.NewSale(product.ID, entry.PlatformCode, price, soldAt)
		if err != nil {
			return err
		}
		if platformSale != nil {
			sale.SetFees(platformSale.ShippingCost, platformSale.PlatformFee, decimal.Zero, decimal.Zero)
			sale.BuyerInfo = platformSale.BuyerName
		}
	}

	// Canonical status flips before any propagation call.
	if product.Status != catalog.ProductStatusSold {
		if err := product.MarkSold(); err != nil {
			return err
		}
		if err := s.products.Save(ctx, product); err != nil {
			return fmt.Errorf("failed to persist product: %w", err)
		}
	}

	entry.MarkSold()
	if err := s.ledger.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist ledger entry: %w", err)
	}

	s.propagateSold(ctx, product.ID, entry.PlatformCode, result)

	item := SoldItem{
		ProductID: product.ID,
		Title:     product.Title,
		Platform:  entry.PlatformCode,
	}
	if sale != nil {
		if err := s.recorder.RecordSale(ctx, sale, product.Title); err != nil {
			return err
		}
		item.SaleID = sale.ID
	}
	result.Sold = append(result.Sold, item)

	s.logger.Info("sale detected",
		zap.String("platform", entry.PlatformCode.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("external_id", entry.ExternalID),
	)
	return nil
}

// propagateSold drives the product's remaining listings toward a terminal
// state, best-effort. Each failure lands on that platform's ledger row and
// in the result; it never aborts the remaining propagations.
func (s *SyncService) propagateSold(
	ctx context.Context,
	productID uuid.UUID,
	soldOn integration.PlatformCode,
	result *CheckSoldResult,
) {
	siblings, err := s.ledger.FindByProduct(ctx, productID)
	if err != nil {
		result.Errors = append(result.Errors, PlatformError{Platform: soldOn, Message: err.Error()})
		return
	}

	// Registry order, not storage order.
	byCode := make(map[integration.PlatformCode]*integration.PlatformListing, len(siblings))
	for i := range siblings {
		byCode[siblings[i].PlatformCode] = &siblings[i]
	}

	for _, code := range s.registry.Codes() {
		sibling, ok := byCode[code]
		if !ok || code == soldOn || sibling.IsTerminal() || sibling.ExternalID == "" {
			continue
		}

		adapter, err := s.registry.Get(code)
		if err != nil {
			continue
		}

		markErr := adapter.MarkAsSold(ctx, sibling.ExternalID)
		if errors.Is(markErr, integration.ErrListingNotFound) {
			// Already gone on the platform; reflect that locally.
			sibling.MarkDeleted()
		} else if markErr != nil {
			sibling.RecordSyncFailure(markErr.Error())
			result.Errors = append(result.Errors, PlatformError{
				Platform:   code,
				ExternalID: sibling.ExternalID,
				Message:    markErr.Error(),
			})
		} else {
			sibling.MarkSold()
		}

		if err := s.ledger.Save(ctx, sibling); err != nil {
			result.Errors = append(result.Errors, PlatformError{
				Platform:   code,
				ExternalID: sibling.ExternalID,
				Message:    err.Error(),
			})
		}
	}
}

// ---------------------------------------------------------------------------
// SyncAll
// ---------------------------------------------------------------------------

// SyncAll retries every ledger entry in error state or flagged stale after
// a local product change. A sold product's remaining live listings are
// driven toward a terminal state instead of being re-published, which lets
// a run interrupted mid-propagation complete later.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncAllResult, error) {
	entries, err := s.ledger.FindNeedingSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger query failed: %w", err)
	}

	result := &SyncAllResult{Total: len(entries)}

	byProduct := make(map[uuid.UUID][]integration.PlatformListing)
	order := make([]uuid.UUID, 0)
	for _, entry := range entries {
		if _, seen := byProduct[entry.ProductID]; !seen {
			order = append(order, entry.ProductID)
		}
		byProduct[entry.ProductID] = append(byProduct[entry.ProductID], entry)
	}

	for _, productID := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.syncProduct(ctx, productID, byProduct[productID], result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// syncProduct re-syncs all stale entries of one product under its lock
func (s *SyncService) syncProduct(
	ctx context.Context,
	productID uuid.UUID,
	entries []integration.PlatformListing,
	result *SyncAllResult,
) error {
	acquired, err := s.locks.TryLock(ctx, productID)
	if err != nil {
		return err
	}
	if !acquired {
		result.SkippedProducts = append(result.SkippedProducts, productID)
		return nil
	}
	defer func() {
		if err := s.locks.Unlock(ctx, productID); err != nil {
			s.logger.Warn("failed to release product lock", zap.String("product_id", productID.String()), zap.Error(err))
		}
	}()

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("product lookup failed: %w", err)
	}

	draft := draftFromProduct(product)

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := entries[i]

		adapter, regErr := s.registry.Get(entry.PlatformCode)
		if regErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, PlatformError{Platform: entry.PlatformCode, Message: regErr.Error()})
			continue
		}

		var syncErr error
		switch {
		case product.Status == catalog.ProductStatusSold:
			// Complete a previously interrupted sold propagation.
			if entry.ExternalID == "" {
				entry.MarkDeleted()
			} else if syncErr = adapter.MarkAsSold(ctx, entry.ExternalID); syncErr == nil {
				entry.MarkSold()
			} else if errors.Is(syncErr, integration.ErrListingNotFound) {
				entry.MarkDeleted()
				syncErr = nil
			}
		case product.Status == catalog.ProductStatusInactive:
			// A withdrawn product is taken down, never republished.
			if entry.ExternalID == "" {
				entry.MarkDeleted()
			} else if syncErr = adapter.DeleteListing(ctx, entry.ExternalID); syncErr == nil {
				entry.MarkDeleted()
			} else if errors.Is(syncErr, integration.ErrListingNotFound) {
				entry.MarkDeleted()
				syncErr = nil
			}
		case entry.ExternalID == "":
			var externalID string
			if externalID, syncErr = adapter.CreateListing(ctx, draft); syncErr == nil {
				entry.RecordSyncSuccess(externalID, "")
			}
		default:
			if syncErr = adapter.UpdateListing(ctx, entry.ExternalID, draft); syncErr == nil {
				entry.RecordSyncSuccess("", "")
			}
		}

		if syncErr != nil {
			entry.RecordSyncFailure(syncErr.Error())
			result.Failed++
			result.Errors = append(result.Errors, PlatformError{
				Platform:   entry.PlatformCode,
				ExternalID: entry.ExternalID,
				Message:    syncErr.Error(),
			})
		} else {
			result.Synced++
		}

		if err := s.ledger.Save(ctx, &entry); err != nil {
			return fmt.Errorf("failed to persist ledger entry: %w", err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats aggregates the ledger into overall and per-platform counts
func (s *SyncService) Stats(ctx context.Context) (*LedgerStats, error) {
	byStatus, err := s.ledger.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger query failed: %w", err)
	}
	byPlatform, err := s.ledger.CountByPlatform(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger query failed: %w", err)
	}

	stats := &LedgerStats{
		ByPlatform: make(map[integration.PlatformCode]PlatformStats, len(byPlatform)),
	}
	for status, count := range byStatus {
		stats.Total += count
		switch status {
		case integration.SyncStatusError:
			stats.Errors += count
			stats.NeedsSync += count
		case integration.SyncStatusPending:
			stats.NeedsSync += count
		}
	}
	for code, counts := range byPlatform {
		ps := PlatformStats{}
		for status, count := range counts {
			ps.Total += count
			switch status {
			case integration.SyncStatusSynced:
				ps.Synced += count
			case integration.SyncStatusError:
				ps.Error += count
			case integration.SyncStatusPending:
				ps.Pending += count
			}
		}
		stats.ByPlatform[code] = ps
	}

	return stats, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// draftFromProduct builds the platform-neutral listing payload
func draftFromProduct(p *catalog.Product) integration.ListingDraft {
	return integration.ListingDraft{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Brand:       p.Brand,
		Size:        p.Size,
		Color:       p.Color,
		Condition:   p.Condition,
		ImageURLs:   p.ImageURLs,
	}
}
