package marketplace

import (
	"context"
	"encoding/json"
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
	depopBaseURL      = "https://www.depop.com"
	depopCookieName   = "access_token"
	depopCookieDomain = ".depop.com"
)

// depopProduct mirrors the product entries in Depop's embedded
// __NEXT_DATA__ shop state
type depopProduct struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PriceAmount string `json:"priceAmount"`
	Sold        bool   `json:"sold"`
	Brand       string `json:"brandName"`
	Size        string `json:"sizeName"`
	Pictures    []struct {
		URL string `json:"url"`
	} `json:"pictures"`
}

// DepopAdapter drives a Depop shop through a browser session. Depop
// renders shop state into the page as JSON, which is more stable to
// scrape than its DOM.
type DepopAdapter struct {
	session *BrowserSession
	cfg     config.BrowserPlatformConfig
	logger  *zap.Logger
}

// NewDepopAdapter creates a Depop adapter on the shared browser session
func NewDepopAdapter(session *BrowserSession, cfg config.BrowserPlatformConfig, logger *zap.Logger) *DepopAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepopAdapter{
		session: session,
		cfg:     cfg,
		logger:  logger.With(zap.String("platform", integration.PlatformCodeDepop.String())),
	}
}

// PlatformCode returns the platform this adapter handles
func (a *DepopAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeDepop
}

// SoldSignal reports that sold items are detected by polling listing status
func (a *DepopAdapter) SoldSignal() integration.SoldSignal {
	return integration.SoldSignalStatusPoll
}

// Authenticate installs the captured session cookie, or logs in with
// credentials, and verifies the session via the sell hub.
func (a *DepopAdapter) Authenticate(ctx context.Context) error {
	actions := []chromedp.Action{}

	if a.cfg.SessionCookie != "" {
		actions = append(actions, SetSessionCookie(depopCookieName, a.cfg.SessionCookie, depopCookieDomain))
	} else {
		actions = append(actions,
			chromedp.Navigate(depopBaseURL+"/login/"),
			chromedp.SendKeys(`input[name="username"]`, a.cfg.Username, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="password"]`, a.cfg.Password, chromedp.ByQuery),
			chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		)
	}

	var currentURL string
	actions = append(actions,
		chromedp.Navigate(depopBaseURL+"/sellinghub/"),
		chromedp.Location(&currentURL),
	)

	if err := a.session.Run(ctx, actions...); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrAuthenticationFailed, err)
	}
	// An expired session bounces the sell hub back to the login page
	if strings.Contains(currentURL, "/login") {
		return fmt.Errorf("%w: redirected to login", integration.ErrAuthenticationFailed)
	}
	return nil
}

// ListListings reads the shop's products from the embedded page state
func (a *DepopAdapter) ListListings(ctx context.Context) ([]integration.ExternalListing, error) {
	var raw string
	err := a.session.Run(ctx,
		chromedp.Navigate(depopBaseURL+"/sellinghub/listings/"),
		chromedp.WaitReady(`#__NEXT_DATA__`, chromedp.ByID),
		chromedp.Evaluate(depopExtractProductsJS, &raw),
	)
	if err != nil {
		return nil, err
	}

	var products []depopProduct
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrInvalidPlatformResponse, err)
	}

	listings := make([]integration.ExternalListing, 0, len(products))
	for _, p := range products {
		listings = append(listings, a.toExternalListing(p))
	}
	return listings, nil
}

// CreateListing publishes a listing through the create form
func (a *DepopAdapter) CreateListing(ctx context.Context, draft integration.ListingDraft) (string, error) {
	var listingURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(depopBaseURL+"/products/create/"),
		chromedp.WaitVisible(`textarea[data-testid="listing__description"]`, chromedp.ByQuery),
		chromedp.SendKeys(`textarea[data-testid="listing__description"]`, depopDescription(draft), chromedp.ByQuery),
		chromedp.SendKeys(`input[data-testid="listing__price"]`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.Click(`button[data-testid="listing__post"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[data-testid="product__page"]`, chromedp.ByQuery),
		chromedp.Location(&listingURL),
	)
	if err != nil {
		return "", err
	}

	slug := depopSlugFromURL(listingURL)
	if slug == "" {
		return "", fmt.Errorf("%w: cannot extract product slug from %s", integration.ErrInvalidPlatformResponse, listingURL)
	}
	return slug, nil
}

// UpdateListing updates the listing through the edit form
func (a *DepopAdapter) UpdateListing(ctx context.Context, externalID string, draft integration.ListingDraft) error {
	return a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/products/edit/%s/", depopBaseURL, externalID)),
		chromedp.WaitVisible(`textarea[data-testid="listing__description"]`, chromedp.ByQuery),
		clearAndType(`textarea[data-testid="listing__description"]`, depopDescription(draft)),
		clearAndType(`input[data-testid="listing__price"]`, draft.Price.StringFixed(2)),
		chromedp.Click(`button[data-testid="listing__post"]`, chromedp.ByQuery),
	)
}

// DeleteListing removes the listing from the selling hub
func (a *DepopAdapter) DeleteListing(ctx context.Context, externalID string) error {
	return a.hubAction(ctx, externalID, `button[data-testid="listing__delete"]`)
}

// MarkAsSold marks the listing as sold from the selling hub
func (a *DepopAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	return a.hubAction(ctx, externalID, `button[data-testid="listing__mark-sold"]`)
}

// CheckListingStatus reads the public product page
func (a *DepopAdapter) CheckListingStatus(ctx context.Context, externalID string) (integration.ListingStatus, error) {
	var state struct {
		Found bool `json:"found"`
		Sold  bool `json:"sold"`
	}
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/products/%s/", depopBaseURL, externalID)),
		chromedp.Evaluate(depopProductStateJS, &state),
	)
	if err != nil {
		return "", err
	}
	if !state.Found {
		return "", integration.ErrListingNotFound
	}
	if state.Sold {
		return integration.ListingStatusSold, nil
	}
	return integration.ListingStatusActive, nil
}

// FetchSales is not available; Depop's receipts page carries no
// machine-readable feed
func (a *DepopAdapter) FetchSales(ctx context.Context, since time.Time) ([]integration.PlatformSale, error) {
	return nil, fmt.Errorf("marketplace: %s exposes no sales feed", integration.PlatformCodeDepop)
}

// hubAction performs a single action on a listing row in the selling hub
func (a *DepopAdapter) hubAction(ctx context.Context, externalID, selector string) error {
	rowSelector := fmt.Sprintf(`[data-testid="listing-row"][data-slug="%s"]`, externalID)
	return a.session.Run(ctx,
		chromedp.Navigate(depopBaseURL+"/sellinghub/listings/"),
		chromedp.WaitVisible(rowSelector, chromedp.ByQuery),
		chromedp.Click(rowSelector+" "+selector, chromedp.ByQuery),
		chromedp.Click(`button[data-testid="confirm"]`, chromedp.ByQuery),
	)
}

func (a *DepopAdapter) toExternalListing(p depopProduct) integration.ExternalListing {
	price, err := decimal.NewFromString(p.PriceAmount)
	if err != nil {
		a.logger.Warn("unparseable product price", zap.String("slug", p.Slug), zap.String("price", p.PriceAmount))
		price = decimal.Zero
	}

	status := integration.ListingStatusActive
	if p.Sold {
		status = integration.ListingStatusSold
	}

	images := make([]string, 0, len(p.Pictures))
	for _, pic := range p.Pictures {
		images = append(images, pic.URL)
	}

	// Depop has no separate title field; the first description line
	// serves as one
	title := p.Description
	if idx := strings.IndexByte(title, '\n'); idx > 0 {
		title = title[:idx]
	}

	return integration.ExternalListing{
		ExternalID:  p.Slug,
		Title:       strings.TrimSpace(title),
		Description: p.Description,
		Price:       price,
		URL:         depopBaseURL + "/products/" + p.Slug + "/",
		Status:      status,
		Brand:       p.Brand,
		Size:        p.Size,
		ImageURLs:   images,
	}
}

// depopDescription folds the draft title into the description since the
// platform has no title field of its own
func depopDescription(draft integration.ListingDraft) string {
	if draft.Description == "" {
		return draft.Title
	}
	return draft.Title + "\n\n" + draft.Description
}

// depopSlugFromURL extracts the product slug from a URL like
// https://www.depop.com/products/seller-vintage-denim-jacket/
func depopSlugFromURL(listingURL string) string {
	parts := strings.Split(listingURL, "/products/")
	if len(parts) != 2 {
		return ""
	}
	return strings.Trim(strings.SplitN(parts[1], "?", 2)[0], "/")
}

const depopExtractProductsJS = `
	(() => {
		const data = JSON.parse(document.getElementById('__NEXT_DATA__').textContent);
		const products = data?.props?.pageProps?.products || [];
		return JSON.stringify(products);
	})()`

const depopProductStateJS = `
	(() => {
		if (document.querySelector('[data-testid="notFound"]')) {
			return { found: false, sold: false };
		}
		return { found: true, sold: document.querySelector('[data-testid="product__sold"]') !== null };
	})()`

// Ensure DepopAdapter implements the adapter port
var _ integration.MarketplaceAdapter = (*DepopAdapter)(nil)
