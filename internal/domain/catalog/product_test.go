package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates active product with defaults", func(t *testing.T) {
		p, err := NewProduct("Vintage Jacket", decimal.NewFromFloat(45.00))
		require.NoError(t, err)

		assert.Equal(t, "Vintage Jacket", p.Title)
		assert.True(t, p.Price.Equal(decimal.NewFromFloat(45.00)))
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.NotEmpty(t, p.ID)
		assert.Empty(t, p.ImageURLs)
	})

	t.Run("trims whitespace from title", func(t *testing.T) {
		p, err := NewProduct("  Denim Shirt  ", decimal.NewFromInt(20))
		require.NoError(t, err)
		assert.Equal(t, "Denim Shirt", p.Title)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := NewProduct("   ", decimal.NewFromInt(10))
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct("Sneakers", decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}

func TestProduct_Update(t *testing.T) {
	p, err := NewProduct("Old Title", decimal.NewFromInt(10))
	require.NoError(t, err)
	before := p.UpdatedAt

	err = p.Update("New Title", "fresh description", decimal.NewFromInt(15))
	require.NoError(t, err)

	assert.Equal(t, "New Title", p.Title)
	assert.Equal(t, "fresh description", p.Description)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(15)))
	assert.True(t, p.UpdatedAt.After(before) || p.UpdatedAt.Equal(before))
}

func TestProduct_StatusTransitions(t *testing.T) {
	t.Run("mark sold", func(t *testing.T) {
		p, _ := NewProduct("Jacket", decimal.NewFromInt(40))
		require.NoError(t, p.MarkSold())
		assert.Equal(t, ProductStatusSold, p.Status)

		// Selling twice is invalid
		assert.Error(t, p.MarkSold())
	})

	t.Run("sold product cannot be reactivated", func(t *testing.T) {
		p, _ := NewProduct("Jacket", decimal.NewFromInt(40))
		require.NoError(t, p.MarkSold())
		assert.Error(t, p.Activate())
		assert.Error(t, p.Deactivate())
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		p, _ := NewProduct("Jacket", decimal.NewFromInt(40))
		require.NoError(t, p.Deactivate())
		assert.Equal(t, ProductStatusInactive, p.Status)
		assert.False(t, p.IsActive())

		require.NoError(t, p.Activate())
		assert.True(t, p.IsActive())
	})
}

func TestProductStatus_IsValid(t *testing.T) {
	assert.True(t, ProductStatusActive.IsValid())
	assert.True(t, ProductStatusSold.IsValid())
	assert.True(t, ProductStatusPending.IsValid())
	assert.True(t, ProductStatusInactive.IsValid())
	assert.False(t, ProductStatus("archived").IsValid())
}
