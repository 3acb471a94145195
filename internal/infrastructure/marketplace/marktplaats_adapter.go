package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

// tokenExpirySlack is subtracted from the token lifetime so a token is
// refreshed before the platform actually rejects it.
const tokenExpirySlack = 30 * time.Second

// MarktplaatsAdapter talks to the Marktplaats REST API with OAuth2
// client-credentials authentication. All requests pass through a shared
// rate limiter; the platform throttles aggressively on bursts.
type MarktplaatsAdapter struct {
	cfg        config.MarktplaatsConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewMarktplaatsAdapter creates a Marktplaats adapter from its config
func NewMarktplaatsAdapter(cfg config.MarktplaatsConfig, logger *zap.Logger) *MarktplaatsAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarktplaatsAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		logger:     logger.With(zap.String("platform", integration.PlatformCodeMarktplaats.String())),
	}
}

// PlatformCode returns the platform this adapter handles
func (a *MarktplaatsAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeMarktplaats
}

// SoldSignal reports that sold items come from the sales feed. The
// per-listing status endpoint lags the feed by hours, so the feed is the
// authoritative signal here.
func (a *MarktplaatsAdapter) SoldSignal() integration.SoldSignal {
	return integration.SoldSignalSalesFeed
}

// Authenticate obtains an access token via the client-credentials grant
func (a *MarktplaatsAdapter) Authenticate(ctx context.Context) error {
	_, err := a.token(ctx)
	return err
}

// ListListings returns all advertisements of the account, following
// pagination until the platform reports no next page.
func (a *MarktplaatsAdapter) ListListings(ctx context.Context) ([]integration.ExternalListing, error) {
	var listings []integration.ExternalListing
	page := ""

	for {
		endpoint := "/advertisements"
		if page != "" {
			endpoint += "?page=" + url.QueryEscape(page)
		}

		var list mpAdvertisementList
		if err := a.doJSON(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
			return nil, err
		}

		for _, ad := range list.Advertisements {
			listings = append(listings, ad.toExternalListing())
		}

		if list.NextPage == "" {
			return listings, nil
		}
		page = list.NextPage
	}
}

// CreateListing publishes a new advertisement and returns its ID
func (a *MarktplaatsAdapter) CreateListing(ctx context.Context, draft integration.ListingDraft) (string, error) {
	var created mpCreateResponse
	if err := a.doJSON(ctx, http.MethodPost, "/advertisements", advertisementFromDraft(draft), &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: created advertisement has no ID", integration.ErrInvalidPlatformResponse)
	}
	return created.ID, nil
}

// UpdateListing updates an advertisement in place
func (a *MarktplaatsAdapter) UpdateListing(ctx context.Context, externalID string, draft integration.ListingDraft) error {
	return a.doJSON(ctx, http.MethodPut, "/advertisements/"+url.PathEscape(externalID), advertisementFromDraft(draft), nil)
}

// DeleteListing removes an advertisement
func (a *MarktplaatsAdapter) DeleteListing(ctx context.Context, externalID string) error {
	return a.doJSON(ctx, http.MethodDelete, "/advertisements/"+url.PathEscape(externalID), nil, nil)
}

// MarkAsSold transitions an advertisement to sold
func (a *MarktplaatsAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	body := map[string]string{"status": "sold"}
	return a.doJSON(ctx, http.MethodPut, "/advertisements/"+url.PathEscape(externalID)+"/status", body, nil)
}

// CheckListingStatus returns the current advertisement status
func (a *MarktplaatsAdapter) CheckListingStatus(ctx context.Context, externalID string) (integration.ListingStatus, error) {
	var ad mpAdvertisement
	if err := a.doJSON(ctx, http.MethodGet, "/advertisements/"+url.PathEscape(externalID), nil, &ad); err != nil {
		return "", err
	}
	return toListingStatus(ad.Status), nil
}

// FetchSales returns the account's sales since the given time
func (a *MarktplaatsAdapter) FetchSales(ctx context.Context, since time.Time) ([]integration.PlatformSale, error) {
	endpoint := "/sales"
	if !since.IsZero() {
		endpoint += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	var feed mpSalesResponse
	if err := a.doJSON(ctx, http.MethodGet, endpoint, nil, &feed); err != nil {
		return nil, err
	}

	sales := make([]integration.PlatformSale, 0, len(feed.Sales))
	for _, s := range feed.Sales {
		sales = append(sales, s.toPlatformSale())
	}
	return sales, nil
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// token returns a cached access token, fetching a fresh one when the
// cached token is missing or about to expire.
func (a *MarktplaatsAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", a.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("token request rejected", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: token endpoint returned %d", integration.ErrAuthenticationFailed, resp.StatusCode)
	}

	var token mpTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrInvalidPlatformResponse, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", integration.ErrAuthenticationFailed)
	}

	a.accessToken = token.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)
	return a.accessToken, nil
}

// invalidateToken drops the cached token after the platform rejects it
func (a *MarktplaatsAdapter) invalidateToken() {
	a.mu.Lock()
	a.accessToken = ""
	a.mu.Unlock()
}

// doJSON performs an authenticated API request and decodes the response
// into out when out is non-nil.
func (a *MarktplaatsAdapter) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return a.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return a.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrInvalidPlatformResponse, err)
		}
	}
	return nil
}

// transportError maps client-side transport failures onto the adapter
// error vocabulary
func (a *MarktplaatsAdapter) transportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", integration.ErrAdapterTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", integration.ErrAdapterTimeout, err)
	}
	return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
}

// statusError maps HTTP error responses onto the adapter error vocabulary
func (a *MarktplaatsAdapter) statusError(resp *http.Response) error {
	var apiErr mpErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)

	msg := apiErr.Message
	if msg == "" {
		msg = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		a.invalidateToken()
		return fmt.Errorf("%w: %s", integration.ErrAuthenticationFailed, msg)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", integration.ErrListingNotFound, msg)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", integration.ErrAlreadyListed, msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", integration.ErrPlatformUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s", integration.ErrAdapterRejected, msg)
	}
}

// Ensure MarktplaatsAdapter implements the adapter port
var _ integration.MarketplaceAdapter = (*MarktplaatsAdapter)(nil)
