package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

const (
	vintedBaseURL      = "https://www.vinted.nl"
	vintedCookieName   = "_vinted_fr_session"
	vintedCookieDomain = ".vinted.nl"
)

// vintedItem is the shape extracted from the wardrobe page's embedded
// item state
type vintedItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	URL         string   `json:"url"`
	Status      string   `json:"status"`
	Brand       string   `json:"brand"`
	Size        string   `json:"size"`
	Photos      []string `json:"photos"`
}

// VintedAdapter drives a Vinted seller account through a browser
// session. Vinted has no public listing API; everything goes through the
// wardrobe and sell pages.
type VintedAdapter struct {
	session *BrowserSession
	cfg     config.BrowserPlatformConfig
	logger  *zap.Logger
}

// NewVintedAdapter creates a Vinted adapter on the shared browser session
func NewVintedAdapter(session *BrowserSession, cfg config.BrowserPlatformConfig, logger *zap.Logger) *VintedAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VintedAdapter{
		session: session,
		cfg:     cfg,
		logger:  logger.With(zap.String("platform", integration.PlatformCodeVinted.String())),
	}
}

// PlatformCode returns the platform this adapter handles
func (a *VintedAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeVinted
}

// SoldSignal reports that sold items are detected by polling listing
// status; Vinted exposes no sales feed to sellers.
func (a *VintedAdapter) SoldSignal() integration.SoldSignal {
	return integration.SoldSignalStatusPoll
}

// Authenticate installs the captured session cookie, or logs in with
// credentials when no cookie is configured, and verifies the session by
// loading the member settings page.
func (a *VintedAdapter) Authenticate(ctx context.Context) error {
	actions := []chromedp.Action{}

	if a.cfg.SessionCookie != "" {
		actions = append(actions, SetSessionCookie(vintedCookieName, a.cfg.SessionCookie, vintedCookieDomain))
	} else {
		actions = append(actions,
			chromedp.Navigate(vintedBaseURL+"/member/signup/select_type?ref_url=%2F"),
			chromedp.Click(`button[data-testid="auth-select-type--login-email"]`, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="username"]`, a.cfg.Username, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="password"]`, a.cfg.Password, chromedp.ByQuery),
			chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		)
	}

	var loggedIn bool
	actions = append(actions,
		chromedp.Navigate(vintedBaseURL+"/settings/profile"),
		chromedp.Evaluate(`document.querySelector('[data-testid="header-avatar"]') !== null`, &loggedIn),
	)

	if err := a.session.Run(ctx, actions...); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrAuthenticationFailed, err)
	}
	if !loggedIn {
		return fmt.Errorf("%w: session cookie or credentials no longer valid", integration.ErrAuthenticationFailed)
	}
	return nil
}

// ListListings reads the seller's wardrobe from the embedded page state
func (a *VintedAdapter) ListListings(ctx context.Context) ([]integration.ExternalListing, error) {
	var items []vintedItem
	err := a.session.Run(ctx,
		chromedp.Navigate(vintedBaseURL+"/member/items"),
		chromedp.WaitVisible(`[data-testid="closet-item"]`, chromedp.ByQuery),
		chromedp.Evaluate(vintedExtractItemsJS, &items),
	)
	if err != nil {
		return nil, err
	}

	listings := make([]integration.ExternalListing, 0, len(items))
	for _, item := range items {
		listings = append(listings, a.toExternalListing(item))
	}
	return listings, nil
}

// CreateListing publishes a listing through the sell form
func (a *VintedAdapter) CreateListing(ctx context.Context, draft integration.ListingDraft) (string, error) {
	var listingURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(vintedBaseURL+"/items/new"),
		chromedp.WaitVisible(`input[data-testid="title--input"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[data-testid="title--input"]`, draft.Title, chromedp.ByQuery),
		chromedp.SendKeys(`textarea[data-testid="description--input"]`, draft.Description, chromedp.ByQuery),
		chromedp.SendKeys(`input[data-testid="price-input--input"]`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.Click(`button[data-testid="upload-form-save-button"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[data-testid="item-page-title"]`, chromedp.ByQuery),
		chromedp.Location(&listingURL),
	)
	if err != nil {
		return "", err
	}

	externalID := vintedItemIDFromURL(listingURL)
	if externalID == "" {
		return "", fmt.Errorf("%w: cannot extract item ID from %s", integration.ErrInvalidPlatformResponse, listingURL)
	}
	return externalID, nil
}

// UpdateListing updates the listing through the edit form
func (a *VintedAdapter) UpdateListing(ctx context.Context, externalID string, draft integration.ListingDraft) error {
	return a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s/edit", vintedBaseURL, externalID)),
		chromedp.WaitVisible(`input[data-testid="title--input"]`, chromedp.ByQuery),
		clearAndType(`input[data-testid="title--input"]`, draft.Title),
		clearAndType(`textarea[data-testid="description--input"]`, draft.Description),
		clearAndType(`input[data-testid="price-input--input"]`, draft.Price.StringFixed(2)),
		chromedp.Click(`button[data-testid="upload-form-save-button"]`, chromedp.ByQuery),
	)
}

// DeleteListing removes the listing
func (a *VintedAdapter) DeleteListing(ctx context.Context, externalID string) error {
	return a.listingAction(ctx, externalID, `button[data-testid="item-delete-button"]`)
}

// MarkAsSold hides the listing. Vinted has no explicit sold state a
// seller can set outside its own checkout, hiding is the closest
// equivalent.
func (a *VintedAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	return a.listingAction(ctx, externalID, `button[data-testid="item-hide-button"]`)
}

// CheckListingStatus reads the listing page status banner
func (a *VintedAdapter) CheckListingStatus(ctx context.Context, externalID string) (integration.ListingStatus, error) {
	var state struct {
		Found  bool   `json:"found"`
		Status string `json:"status"`
	}
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s", vintedBaseURL, externalID)),
		chromedp.Evaluate(vintedItemStatusJS, &state),
	)
	if err != nil {
		return "", err
	}
	if !state.Found {
		return "", integration.ErrListingNotFound
	}

	switch state.Status {
	case "sold":
		return integration.ListingStatusSold, nil
	case "hidden", "closed":
		return integration.ListingStatusDeleted, nil
	case "active", "reserved":
		return integration.ListingStatusActive, nil
	default:
		return integration.ListingStatusError, nil
	}
}

// FetchSales is not available; Vinted exposes no seller sales feed
func (a *VintedAdapter) FetchSales(ctx context.Context, since time.Time) ([]integration.PlatformSale, error) {
	return nil, fmt.Errorf("marketplace: %s exposes no sales feed", integration.PlatformCodeVinted)
}

// listingAction opens the listing page and clicks a single action button
func (a *VintedAdapter) listingAction(ctx context.Context, externalID, selector string) error {
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s", vintedBaseURL, externalID)),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Click(`button[data-testid="confirm-button"]`, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	return nil
}

func (a *VintedAdapter) toExternalListing(item vintedItem) integration.ExternalListing {
	price, err := decimal.NewFromString(item.Price)
	if err != nil {
		a.logger.Warn("unparseable item price", zap.String("item_id", item.ID), zap.String("price", item.Price))
		price = decimal.Zero
	}

	status := integration.ListingStatusActive
	switch item.Status {
	case "sold":
		status = integration.ListingStatusSold
	case "hidden", "closed":
		status = integration.ListingStatusDeleted
	}

	return integration.ExternalListing{
		ExternalID:  item.ID,
		Title:       item.Title,
		Description: item.Description,
		Price:       price,
		URL:         item.URL,
		Status:      status,
		Brand:       item.Brand,
		Size:        item.Size,
		ImageURLs:   item.Photos,
	}
}

// vintedItemIDFromURL extracts the numeric item ID from a listing URL
// like https://www.vinted.nl/items/4211234567-vintage-denim-jacket
func vintedItemIDFromURL(listingURL string) string {
	parts := strings.Split(listingURL, "/items/")
	if len(parts) != 2 {
		return ""
	}
	slug := parts[1]
	if idx := strings.IndexAny(slug, "-?/"); idx > 0 {
		slug = slug[:idx]
	}
	return slug
}

// clearAndType replaces an input's current value
func clearAndType(selector, value string) chromedp.Action {
	return chromedp.Tasks{
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	}
}

const vintedExtractItemsJS = `
	Array.from(document.querySelectorAll('[data-testid="closet-item"]')).map(el => ({
		id: el.dataset.itemId || '',
		title: el.querySelector('[data-testid="item-title"]')?.textContent?.trim() || '',
		description: '',
		price: (el.querySelector('[data-testid="item-price"]')?.textContent || '').replace(/[^0-9.,]/g, '').replace(',', '.'),
		url: el.querySelector('a')?.href || '',
		status: el.dataset.itemStatus || 'active',
		brand: el.querySelector('[data-testid="item-brand"]')?.textContent?.trim() || '',
		size: el.querySelector('[data-testid="item-size"]')?.textContent?.trim() || '',
		photos: Array.from(el.querySelectorAll('img')).map(img => img.src)
	}))`

const vintedItemStatusJS = `
	(() => {
		if (document.querySelector('[data-testid="empty-state"]')) {
			return { found: false, status: '' };
		}
		const el = document.querySelector('[data-testid="item-status"]');
		return { found: true, status: el ? el.dataset.status : 'active' };
	})()`

// Ensure VintedAdapter implements the adapter port
var _ integration.MarketplaceAdapter = (*VintedAdapter)(nil)
