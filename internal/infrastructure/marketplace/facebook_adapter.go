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
	facebookBaseURL      = "https://www.facebook.com"
	facebookCookieName   = "c_user_session"
	facebookCookieDomain = ".facebook.com"
)

// fbListing is the shape extracted from the "your listings" page
type fbListing struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Price  string   `json:"price"`
	Status string   `json:"status"`
	Images []string `json:"images"`
}

// FacebookAdapter drives a Facebook Marketplace seller profile through a
// browser session. Marketplace pages are heavily dynamic; every
// operation waits for the commerce container before acting.
type FacebookAdapter struct {
	session *BrowserSession
	cfg     config.BrowserPlatformConfig
	logger  *zap.Logger
}

// NewFacebookAdapter creates a Facebook Marketplace adapter on the
// shared browser session
func NewFacebookAdapter(session *BrowserSession, cfg config.BrowserPlatformConfig, logger *zap.Logger) *FacebookAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacebookAdapter{
		session: session,
		cfg:     cfg,
		logger:  logger.With(zap.String("platform", integration.PlatformCodeFacebook.String())),
	}
}

// PlatformCode returns the platform this adapter handles
func (a *FacebookAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeFacebook
}

// SoldSignal reports that sold items are detected by polling listing status
func (a *FacebookAdapter) SoldSignal() integration.SoldSignal {
	return integration.SoldSignalStatusPoll
}

// Authenticate installs the captured session cookie, or logs in with
// credentials, and verifies the session on the selling overview.
func (a *FacebookAdapter) Authenticate(ctx context.Context) error {
	actions := []chromedp.Action{}

	if a.cfg.SessionCookie != "" {
		actions = append(actions, SetSessionCookie(facebookCookieName, a.cfg.SessionCookie, facebookCookieDomain))
	} else {
		actions = append(actions,
			chromedp.Navigate(facebookBaseURL+"/login/"),
			chromedp.SendKeys(`input#email`, a.cfg.Username, chromedp.ByQuery),
			chromedp.SendKeys(`input#pass`, a.cfg.Password, chromedp.ByQuery),
			chromedp.Click(`button[name="login"]`, chromedp.ByQuery),
		)
	}

	var currentURL string
	actions = append(actions,
		chromedp.Navigate(facebookBaseURL+"/marketplace/you/selling"),
		chromedp.Location(&currentURL),
	)

	if err := a.session.Run(ctx, actions...); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrAuthenticationFailed, err)
	}
	if strings.Contains(currentURL, "/login") {
		return fmt.Errorf("%w: redirected to login", integration.ErrAuthenticationFailed)
	}
	return nil
}

// ListListings reads the seller's listings from the selling overview
func (a *FacebookAdapter) ListListings(ctx context.Context) ([]integration.ExternalListing, error) {
	var items []fbListing
	err := a.session.Run(ctx,
		chromedp.Navigate(facebookBaseURL+"/marketplace/you/selling"),
		chromedp.WaitVisible(`[aria-label="Your listings"]`, chromedp.ByQuery),
		chromedp.Evaluate(fbExtractListingsJS, &items),
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

// CreateListing publishes a listing through the item create flow
func (a *FacebookAdapter) CreateListing(ctx context.Context, draft integration.ListingDraft) (string, error) {
	var listingURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(facebookBaseURL+"/marketplace/create/item"),
		chromedp.WaitVisible(`input[aria-label="Title"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[aria-label="Title"]`, draft.Title, chromedp.ByQuery),
		chromedp.SendKeys(`input[aria-label="Price"]`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.SendKeys(`textarea[aria-label="Description"]`, draft.Description, chromedp.ByQuery),
		chromedp.Click(`div[aria-label="Publish"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[aria-label="Your listings"]`, chromedp.ByQuery),
		chromedp.Location(&listingURL),
	)
	if err != nil {
		return "", err
	}

	externalID := fbItemIDFromURL(listingURL)
	if externalID == "" {
		return "", fmt.Errorf("%w: cannot extract item ID from %s", integration.ErrInvalidPlatformResponse, listingURL)
	}
	return externalID, nil
}

// UpdateListing updates the listing through the edit flow
func (a *FacebookAdapter) UpdateListing(ctx context.Context, externalID string, draft integration.ListingDraft) error {
	return a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/marketplace/edit/%s/", facebookBaseURL, externalID)),
		chromedp.WaitVisible(`input[aria-label="Title"]`, chromedp.ByQuery),
		clearAndType(`input[aria-label="Title"]`, draft.Title),
		clearAndType(`input[aria-label="Price"]`, draft.Price.StringFixed(2)),
		clearAndType(`textarea[aria-label="Description"]`, draft.Description),
		chromedp.Click(`div[aria-label="Update"]`, chromedp.ByQuery),
	)
}

// DeleteListing removes the listing from the selling overview
func (a *FacebookAdapter) DeleteListing(ctx context.Context, externalID string) error {
	return a.listingMenuAction(ctx, externalID, `div[aria-label="Delete listing"]`)
}

// MarkAsSold marks the listing as sold from the selling overview
func (a *FacebookAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	return a.listingMenuAction(ctx, externalID, `div[aria-label="Mark as sold"]`)
}

// CheckListingStatus reads the public item page
func (a *FacebookAdapter) CheckListingStatus(ctx context.Context, externalID string) (integration.ListingStatus, error) {
	var state struct {
		Found bool   `json:"found"`
		Badge string `json:"badge"`
	}
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/marketplace/item/%s/", facebookBaseURL, externalID)),
		chromedp.Evaluate(fbItemStateJS, &state),
	)
	if err != nil {
		return "", err
	}
	if !state.Found {
		return "", integration.ErrListingNotFound
	}

	switch state.Badge {
	case "Sold":
		return integration.ListingStatusSold, nil
	case "Pending":
		return integration.ListingStatusPending, nil
	case "":
		return integration.ListingStatusActive, nil
	default:
		return integration.ListingStatusError, nil
	}
}

// FetchSales is not available; Marketplace has no seller sales feed
func (a *FacebookAdapter) FetchSales(ctx context.Context, since time.Time) ([]integration.PlatformSale, error) {
	return nil, fmt.Errorf("marketplace: %s exposes no sales feed", integration.PlatformCodeFacebook)
}

// listingMenuAction opens a listing's overflow menu on the selling
// overview and clicks one menu entry
func (a *FacebookAdapter) listingMenuAction(ctx context.Context, externalID, selector string) error {
	cardSelector := fmt.Sprintf(`[data-listing-id="%s"]`, externalID)
	return a.session.Run(ctx,
		chromedp.Navigate(facebookBaseURL+"/marketplace/you/selling"),
		chromedp.WaitVisible(cardSelector, chromedp.ByQuery),
		chromedp.Click(cardSelector+` div[aria-label="More options"]`, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Click(`div[aria-label="Confirm"]`, chromedp.ByQuery),
	)
}

func (a *FacebookAdapter) toExternalListing(item fbListing) integration.ExternalListing {
	price, err := decimal.NewFromString(item.Price)
	if err != nil {
		a.logger.Warn("unparseable listing price", zap.String("item_id", item.ID), zap.String("price", item.Price))
		price = decimal.Zero
	}

	status := integration.ListingStatusActive
	switch item.Status {
	case "Sold":
		status = integration.ListingStatusSold
	case "Pending":
		status = integration.ListingStatusPending
	}

	return integration.ExternalListing{
		ExternalID: item.ID,
		Title:      item.Title,
		Price:      price,
		URL:        facebookBaseURL + "/marketplace/item/" + item.ID + "/",
		Status:     status,
		ImageURLs:  item.Images,
	}
}

// fbItemIDFromURL extracts the numeric item ID from a URL like
// https://www.facebook.com/marketplace/item/1234567890/
func fbItemIDFromURL(listingURL string) string {
	parts := strings.Split(listingURL, "/marketplace/item/")
	if len(parts) != 2 {
		return ""
	}
	return strings.Trim(strings.SplitN(parts[1], "?", 2)[0], "/")
}

const fbExtractListingsJS = `
	Array.from(document.querySelectorAll('[data-listing-id]')).map(el => ({
		id: el.dataset.listingId,
		title: el.querySelector('[data-testid="listing-title"]')?.textContent?.trim() || '',
		price: (el.querySelector('[data-testid="listing-price"]')?.textContent || '').replace(/[^0-9.,]/g, '').replace(',', '.'),
		status: el.querySelector('[data-testid="listing-badge"]')?.textContent?.trim() || '',
		images: Array.from(el.querySelectorAll('img')).map(img => img.src)
	}))`

const fbItemStateJS = `
	(() => {
		if (document.querySelector('[data-testid="content-unavailable"]')) {
			return { found: false, badge: '' };
		}
		const badge = document.querySelector('[data-testid="item-status-badge"]');
		return { found: true, badge: badge ? badge.textContent.trim() : '' };
	})()`

// Ensure FacebookAdapter implements the adapter port
var _ integration.MarketplaceAdapter = (*FacebookAdapter)(nil)
