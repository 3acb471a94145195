package sales

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
)

func TestNewSale(t *testing.T) {
	t.Run("creates sale", func(t *testing.T) {
		productID := uuid.New()
		soldAt := time.Date(2025, 11, 3, 14, 30, 0, 0, time.UTC)

		sale, err := NewSale(productID, integration.PlatformCodeVinted, decimal.NewFromFloat(45.00), soldAt)
		require.NoError(t, err)

		assert.Equal(t, productID, sale.ProductID)
		assert.Equal(t, integration.PlatformCodeVinted, sale.PlatformCode)
		assert.True(t, sale.SalePrice.Equal(decimal.NewFromFloat(45.00)))
		assert.Equal(t, soldAt, sale.SoldAt)
		assert.False(t, sale.SyncedToAccounting)
	})

	t.Run("defaults zero sold time to now", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), integration.PlatformCodeDepop, decimal.NewFromInt(10), time.Time{})
		require.NoError(t, err)
		assert.False(t, sale.SoldAt.IsZero())
	})

	t.Run("rejects nil product", func(t *testing.T) {
		_, err := NewSale(uuid.Nil, integration.PlatformCodeDepop, decimal.NewFromInt(10), time.Now())
		assert.ErrorIs(t, err, ErrInvalidProductID)
	})

	t.Run("rejects invalid platform", func(t *testing.T) {
		_, err := NewSale(uuid.New(), integration.PlatformCode("EBAY"), decimal.NewFromInt(10), time.Now())
		assert.ErrorIs(t, err, integration.ErrInvalidPlatformCode)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewSale(uuid.New(), integration.PlatformCodeDepop, decimal.NewFromInt(-5), time.Now())
		assert.ErrorIs(t, err, ErrInvalidSalePrice)
	})
}

func TestSale_SetFees(t *testing.T) {
	sale, err := NewSale(uuid.New(), integration.PlatformCodeMarktplaats, decimal.NewFromFloat(100.00), time.Now())
	require.NoError(t, err)

	sale.SetFees(
		decimal.NewFromFloat(5.50),  // shipping
		decimal.NewFromFloat(10.00), // platform fee
		decimal.NewFromFloat(1.50),  // payment fee
		decimal.NewFromFloat(30.00), // original cost
	)

	assert.True(t, sale.NetProfit.Equal(decimal.NewFromFloat(53.00)),
		"expected 53.00, got %s", sale.NetProfit)
}

func TestSale_MarkAccountingSynced(t *testing.T) {
	sale, err := NewSale(uuid.New(), integration.PlatformCodeVinted, decimal.NewFromInt(20), time.Now())
	require.NoError(t, err)

	sale.MarkAccountingSynced("Sales!A42")

	assert.True(t, sale.SyncedToAccounting)
	assert.Equal(t, "Sales!A42", sale.AccountingRowRef)
}
