package marketplace

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/crosslist/backend/internal/domain/integration"
)

func TestVintedItemIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"slugged URL", "https://www.vinted.nl/items/4211234567-vintage-denim-jacket", "4211234567"},
		{"bare ID", "https://www.vinted.nl/items/4211234567", "4211234567"},
		{"query string", "https://www.vinted.nl/items/4211234567?ref=closet", "4211234567"},
		{"not an item URL", "https://www.vinted.nl/member/items", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vintedItemIDFromURL(tt.url))
		})
	}
}

func TestDepopSlugFromURL(t *testing.T) {
	assert.Equal(t, "seller-vintage-denim-jacket",
		depopSlugFromURL("https://www.depop.com/products/seller-vintage-denim-jacket/"))
	assert.Equal(t, "seller-wool-scarf",
		depopSlugFromURL("https://www.depop.com/products/seller-wool-scarf/?moduleOrigin=shop"))
	assert.Equal(t, "", depopSlugFromURL("https://www.depop.com/sellinghub/"))
}

func TestFbItemIDFromURL(t *testing.T) {
	assert.Equal(t, "1234567890",
		fbItemIDFromURL("https://www.facebook.com/marketplace/item/1234567890/"))
	assert.Equal(t, "1234567890",
		fbItemIDFromURL("https://www.facebook.com/marketplace/item/1234567890/?ref=selling"))
	assert.Equal(t, "", fbItemIDFromURL("https://www.facebook.com/marketplace/you/selling"))
}

func TestCentsConversion(t *testing.T) {
	assert.True(t, centsToDecimal(4250).Equal(decimal.NewFromFloat(42.50)))
	assert.Equal(t, int64(4250), decimalToCents(decimal.NewFromFloat(42.50)))
	assert.Equal(t, int64(0), decimalToCents(decimal.Zero))
}

func TestToListingStatus(t *testing.T) {
	assert.Equal(t, integration.ListingStatusActive, toListingStatus("active"))
	assert.Equal(t, integration.ListingStatusActive, toListingStatus("reserved"))
	assert.Equal(t, integration.ListingStatusSold, toListingStatus("sold"))
	assert.Equal(t, integration.ListingStatusPending, toListingStatus("in_review"))
	assert.Equal(t, integration.ListingStatusDeleted, toListingStatus("expired"))
	assert.Equal(t, integration.ListingStatusError, toListingStatus("weird"))
}

func TestDepopDescription(t *testing.T) {
	draft := integration.ListingDraft{Title: "Vintage denim jacket", Description: "Barely worn."}
	assert.Equal(t, "Vintage denim jacket\n\nBarely worn.", depopDescription(draft))

	assert.Equal(t, "Vintage denim jacket", depopDescription(integration.ListingDraft{Title: "Vintage denim jacket"}))
}
