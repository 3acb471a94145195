package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/sales"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

const (
	sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"
	sheetsScope   = "https://www.googleapis.com/auth/spreadsheets"

	// Google caps service-account assertions at one hour
	assertionLifetime = time.Hour
	tokenExpirySlack  = 30 * time.Second
)

// SheetsSink appends sale rows to a Google Sheets spreadsheet. It
// authenticates as a service account: a signed JWT assertion is
// exchanged for a short-lived access token, which is cached until close
// to expiry.
type SheetsSink struct {
	cfg        config.AccountingConfig
	httpClient *http.Client
	logger     *zap.Logger
	apiBase    string

	mu          sync.Mutex
	privateKey  interface{}
	accessToken string
	tokenExpiry time.Time
}

// NewSheetsSink creates a sheets sink from its config. The private key
// is parsed eagerly so a malformed key fails at startup, not on the
// first sale.
func NewSheetsSink(cfg config.AccountingConfig, logger *zap.Logger) (*SheetsSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("accounting: parse service account key: %w", err)
	}

	return &SheetsSink{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		apiBase:    sheetsAPIBase,
		privateKey: key,
	}, nil
}

// appendRequest is the values:append request body
type appendRequest struct {
	Values [][]interface{} `json:"values"`
}

// appendResponse is the values:append response body
type appendResponse struct {
	Updates struct {
		UpdatedRange string `json:"updatedRange"`
	} `json:"updates"`
}

// AppendSaleRow appends one row for the sale and returns the range the
// API reports for it, e.g. "Sales!A42:H42".
func (s *SheetsSink) AppendSaleRow(ctx context.Context, sale *sales.Sale, productTitle string) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	row := []interface{}{
		sale.SoldAt.Format("2006-01-02"),
		productTitle,
		sale.PlatformCode.DisplayName(),
		sale.SalePrice.StringFixed(2),
		sale.ShippingCost.StringFixed(2),
		sale.PlatformFee.StringFixed(2),
		sale.NetProfit.StringFixed(2),
		sale.BuyerInfo,
	}

	payload, err := json.Marshal(appendRequest{Values: [][]interface{}{row}})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED",
		s.apiBase, url.PathEscape(s.cfg.SpreadsheetID), url.PathEscape(s.cfg.SheetName))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("accounting: append request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			s.invalidateToken()
		}
		return "", fmt.Errorf("accounting: append returned %d", resp.StatusCode)
	}

	var appended appendResponse
	if err := json.NewDecoder(resp.Body).Decode(&appended); err != nil {
		return "", fmt.Errorf("accounting: decode append response: %w", err)
	}
	if appended.Updates.UpdatedRange == "" {
		return "", fmt.Errorf("accounting: append response carries no updated range")
	}

	s.logger.Info("sale row appended",
		zap.String("sale_id", sale.ID.String()),
		zap.String("range", appended.Updates.UpdatedRange))
	return appended.Updates.UpdatedRange, nil
}

// ---------------------------------------------------------------------------
// Service account token exchange
// ---------------------------------------------------------------------------

// tokenResponse is the OAuth2 token endpoint response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached access token, exchanging a fresh assertion
// when the cached one is missing or about to expire.
func (s *SheetsSink) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	assertion, err := s.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("accounting: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("accounting: token endpoint returned %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("accounting: decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("accounting: token endpoint returned empty token")
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)
	return s.accessToken, nil
}

// signAssertion builds the RS256 service-account assertion
func (s *SheetsSink) signAssertion() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.cfg.ServiceAccountEmail,
		"scope": sheetsScope,
		"aud":   s.cfg.TokenURL,
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(assertionLifetime)),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("accounting: sign assertion: %w", err)
	}
	return assertion, nil
}

// invalidateToken drops the cached token after the API rejects it
func (s *SheetsSink) invalidateToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

// Ensure SheetsSink implements sales.AccountingSink
var _ sales.AccountingSink = (*SheetsSink)(nil)
