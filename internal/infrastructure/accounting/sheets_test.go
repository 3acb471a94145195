package accounting

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/sales"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}

// newTestSheetsServer serves the token endpoint and the values:append
// endpoint of the spreadsheet API.
func newTestSheetsServer(t *testing.T, appendHandler http.HandlerFunc) (*httptest.Server, *int64) {
	t.Helper()
	var tokenRequests int64

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&tokenRequests, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		assert.NotEmpty(t, r.Form.Get("assertion"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "sheets-token",
			"expires_in":   3600,
		})
	})
	if appendHandler != nil {
		mux.HandleFunc("/", appendHandler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenRequests
}

func newTestSink(t *testing.T, serverURL string) *SheetsSink {
	t.Helper()
	sink, err := NewSheetsSink(config.AccountingConfig{
		SpreadsheetID:       "sheet-1",
		SheetName:           "Sales",
		ServiceAccountEmail: "bot@project.iam.gserviceaccount.com",
		PrivateKeyPEM:       testPrivateKeyPEM(t),
		TokenURL:            serverURL + "/token",
		Timeout:             5 * time.Second,
	}, nil)
	require.NoError(t, err)
	sink.apiBase = serverURL
	return sink
}

func newTestSale(t *testing.T) *sales.Sale {
	t.Helper()
	sale, err := sales.NewSale(uuid.New(), integration.PlatformCodeVinted,
		decimal.NewFromFloat(42.50), time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	sale.SetFees(decimal.NewFromFloat(3.95), decimal.NewFromFloat(2.13), decimal.Zero, decimal.Zero)
	sale.BuyerInfo = "jan_123"
	return sale
}

func TestNewSheetsSink(t *testing.T) {
	t.Run("rejects malformed private key", func(t *testing.T) {
		_, err := NewSheetsSink(config.AccountingConfig{PrivateKeyPEM: "not a key"}, nil)
		assert.Error(t, err)
	})
}

func TestSheetsSink_AppendSaleRow(t *testing.T) {
	t.Run("appends the row and returns the range", func(t *testing.T) {
		server, _ := newTestSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/sheet-1/values/Sales:append", r.URL.Path)
			require.Equal(t, "Bearer sheets-token", r.Header.Get("Authorization"))
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))

			var req appendRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Values, 1)
			row := req.Values[0]
			require.Len(t, row, 8)
			assert.Equal(t, "2026-03-14", row[0])
			assert.Equal(t, "Vintage denim jacket", row[1])
			assert.Equal(t, "Vinted", row[2])
			assert.Equal(t, "42.50", row[3])
			assert.Equal(t, "36.42", row[6])
			assert.Equal(t, "jan_123", row[7])

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"updates": map[string]string{"updatedRange": "Sales!A42:H42"},
			})
		})
		sink := newTestSink(t, server.URL)

		rowRef, err := sink.AppendSaleRow(context.Background(), newTestSale(t), "Vintage denim jacket")
		require.NoError(t, err)
		assert.Equal(t, "Sales!A42:H42", rowRef)
	})

	t.Run("reuses the cached token across appends", func(t *testing.T) {
		server, tokenRequests := newTestSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"updates": map[string]string{"updatedRange": "Sales!A43:H43"},
			})
		})
		sink := newTestSink(t, server.URL)

		_, err := sink.AppendSaleRow(context.Background(), newTestSale(t), "x")
		require.NoError(t, err)
		_, err = sink.AppendSaleRow(context.Background(), newTestSale(t), "y")
		require.NoError(t, err)

		assert.Equal(t, int64(1), atomic.LoadInt64(tokenRequests))
	})

	t.Run("rejected token is dropped for the next call", func(t *testing.T) {
		var appendCalls int64
		server, tokenRequests := newTestSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt64(&appendCalls, 1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"updates": map[string]string{"updatedRange": "Sales!A44:H44"},
			})
		})
		sink := newTestSink(t, server.URL)

		_, err := sink.AppendSaleRow(context.Background(), newTestSale(t), "x")
		assert.Error(t, err)

		_, err = sink.AppendSaleRow(context.Background(), newTestSale(t), "x")
		require.NoError(t, err)
		assert.Equal(t, int64(2), atomic.LoadInt64(tokenRequests))
	})

	t.Run("append failure surfaces as error", func(t *testing.T) {
		server, _ := newTestSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		sink := newTestSink(t, server.URL)

		_, err := sink.AppendSaleRow(context.Background(), newTestSale(t), "x")
		assert.Error(t, err)
	})
}
