package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

// newTestMarktplaatsServer serves a minimal API double: a token endpoint
// plus whatever handler the test installs for API routes.
func newTestMarktplaatsServer(t *testing.T, apiHandler http.HandlerFunc) (*httptest.Server, *int64) {
	t.Helper()
	var tokenRequests int64

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&tokenRequests, 1)
		require.NoError(t, r.ParseForm())
		if r.Form.Get("client_id") != "client-1" || r.Form.Get("client_secret") != "secret-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(mpTokenResponse{
			AccessToken: "token-abc",
			TokenType:   "bearer",
			ExpiresIn:   3600,
		})
	})
	if apiHandler != nil {
		mux.HandleFunc("/", apiHandler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenRequests
}

func newTestMarktplaatsAdapter(serverURL string) *MarktplaatsAdapter {
	return NewMarktplaatsAdapter(config.MarktplaatsConfig{
		BaseURL:       serverURL,
		ClientID:      "client-1",
		ClientSecret:  "secret-1",
		RatePerSecond: 100,
		RateBurst:     100,
		Timeout:       5 * time.Second,
	}, nil)
}

func TestMarktplaatsAdapter_Authenticate(t *testing.T) {
	t.Run("fetches and caches the token", func(t *testing.T) {
		server, tokenRequests := newTestMarktplaatsServer(t, nil)
		adapter := newTestMarktplaatsAdapter(server.URL)

		require.NoError(t, adapter.Authenticate(context.Background()))
		require.NoError(t, adapter.Authenticate(context.Background()))

		assert.Equal(t, int64(1), atomic.LoadInt64(tokenRequests))
	})

	t.Run("rejected credentials surface as authentication failure", func(t *testing.T) {
		server, _ := newTestMarktplaatsServer(t, nil)
		adapter := NewMarktplaatsAdapter(config.MarktplaatsConfig{
			BaseURL:       server.URL,
			ClientID:      "client-1",
			ClientSecret:  "wrong",
			RatePerSecond: 100,
			RateBurst:     100,
			Timeout:       5 * time.Second,
		}, nil)

		err := adapter.Authenticate(context.Background())
		assert.ErrorIs(t, err, integration.ErrAuthenticationFailed)
	})
}

func TestMarktplaatsAdapter_ListListings(t *testing.T) {
	server, _ := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		require.Equal(t, "/advertisements", r.URL.Path)

		// Two pages to exercise pagination
		if r.URL.Query().Get("page") == "" {
			_ = json.NewEncoder(w).Encode(mpAdvertisementList{
				Advertisements: []mpAdvertisement{{
					ID:     "m-1",
					Title:  "Vintage denim jacket",
					Price:  mpPrice{AmountCents: 4500, Currency: "EUR"},
					Status: "active",
				}},
				NextPage: "2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(mpAdvertisementList{
			Advertisements: []mpAdvertisement{{
				ID:     "m-2",
				Title:  "Wool scarf",
				Price:  mpPrice{AmountCents: 1250, Currency: "EUR"},
				Status: "sold",
			}},
		})
	})
	adapter := newTestMarktplaatsAdapter(server.URL)

	listings, err := adapter.ListListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "m-1", listings[0].ExternalID)
	assert.True(t, listings[0].Price.Equal(decimal.NewFromFloat(45.00)))
	assert.Equal(t, integration.ListingStatusActive, listings[0].Status)

	assert.Equal(t, "m-2", listings[1].ExternalID)
	assert.Equal(t, integration.ListingStatusSold, listings[1].Status)
}

func TestMarktplaatsAdapter_CreateListing(t *testing.T) {
	t.Run("creates and returns the advertisement ID", func(t *testing.T) {
		server, _ := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/advertisements", r.URL.Path)

			var ad mpAdvertisement
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ad))
			assert.Equal(t, "Vintage denim jacket", ad.Title)
			assert.Equal(t, int64(4500), ad.Price.AmountCents)
			assert.Equal(t, "Levi's", ad.Attributes.Brand)

			_ = json.NewEncoder(w).Encode(mpCreateResponse{ID: "m-77"})
		})
		adapter := newTestMarktplaatsAdapter(server.URL)

		externalID, err := adapter.CreateListing(context.Background(), integration.ListingDraft{
			Title: "Vintage denim jacket",
			Price: decimal.NewFromFloat(45.00),
			Brand: "Levi's",
		})
		require.NoError(t, err)
		assert.Equal(t, "m-77", externalID)
	})

	t.Run("duplicate listing maps to ErrAlreadyListed", func(t *testing.T) {
		server, _ := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(mpErrorResponse{Code: "duplicate", Message: "already advertised"})
		})
		adapter := newTestMarktplaatsAdapter(server.URL)

		_, err := adapter.CreateListing(context.Background(), integration.ListingDraft{Title: "x"})
		assert.ErrorIs(t, err, integration.ErrAlreadyListed)
	})
}

func TestMarktplaatsAdapter_CheckListingStatus(t *testing.T) {
	t.Run("maps platform status", func(t *testing.T) {
		server, _ := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/advertisements/m-1", r.URL.Path)
			_ = json.NewEncoder(w).Encode(mpAdvertisement{ID: "m-1", Status: "sold"})
		})
		adapter := newTestMarktplaatsAdapter(server.URL)

		status, err := adapter.CheckListingStatus(context.Background(), "m-1")
		require.NoError(t, err)
		assert.Equal(t, integration.ListingStatusSold, status)
	})

	t.Run("missing advertisement maps to ErrListingNotFound", func(t *testing.T) {
		server, _ := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		adapter := newTestMarktplaatsAdapter(server.URL)

		_, err := adapter.CheckListingStatus(context.Background(), "m-404")
		assert.ErrorIs(t, err, integration.ErrListingNotFound)
	})
}

func TestMarktplaatsAdapter_FetchSales(t *testing.T) {
	soldAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	server, _ := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sales", r.URL.Path)
		assert.Equal(t, "2026-03-01T00:00:00Z", r.URL.Query().Get("since"))

		_ = json.NewEncoder(w).Encode(mpSalesResponse{Sales: []mpSale{{
			AdvertisementID: "m-1",
			Price:           mpPrice{AmountCents: 4250, Currency: "EUR"},
			CommissionCents: 250,
			BuyerName:       "jan_123",
			SoldAt:          soldAt,
		}}})
	})
	adapter := newTestMarktplaatsAdapter(server.URL)

	sales, err := adapter.FetchSales(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, sales, 1)

	assert.Equal(t, "m-1", sales[0].ExternalID)
	assert.True(t, sales[0].SalePrice.Equal(decimal.NewFromFloat(42.50)))
	assert.True(t, sales[0].PlatformFee.Equal(decimal.NewFromFloat(2.50)))
	assert.Equal(t, "jan_123", sales[0].BuyerName)
	assert.True(t, sales[0].SoldAt.Equal(soldAt))
}

func TestMarktplaatsAdapter_ExpiredTokenIsDropped(t *testing.T) {
	var calls int64
	server, tokenRequests := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(mpAdvertisementList{})
	})
	adapter := newTestMarktplaatsAdapter(server.URL)

	_, err := adapter.ListListings(context.Background())
	assert.ErrorIs(t, err, integration.ErrAuthenticationFailed)

	// The next call re-authenticates instead of reusing the dead token
	_, err = adapter.ListListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(tokenRequests))
}

func TestMarktplaatsAdapter_ServerErrorMapsToUnavailable(t *testing.T) {
	server, _ := newTestMarktplaatsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	adapter := newTestMarktplaatsAdapter(server.URL)

	err := adapter.MarkAsSold(context.Background(), "m-1")
	assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
}
