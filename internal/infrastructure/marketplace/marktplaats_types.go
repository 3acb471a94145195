package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Marktplaats Wire Types
// ---------------------------------------------------------------------------

// mpTokenResponse is the OAuth2 client-credentials token response
type mpTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// mpPrice carries an amount in euro cents
type mpPrice struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// mpAdvertisement is a listing as the Marktplaats API reports it
type mpAdvertisement struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       mpPrice  `json:"price"`
	CategoryID  string   `json:"category_id"`
	Attributes  mpAttrs  `json:"attributes"`
	ImageURLs   []string `json:"image_urls"`
	Status      string   `json:"status"`
	URL         string   `json:"url"`
}

// mpAttrs is the free-form attribute block on an advertisement
type mpAttrs struct {
	Brand     string `json:"brand,omitempty"`
	Size      string `json:"size,omitempty"`
	Condition string `json:"condition,omitempty"`
	Color     string `json:"color,omitempty"`
}

// mpAdvertisementList is the paginated listing response
type mpAdvertisementList struct {
	Advertisements []mpAdvertisement `json:"advertisements"`
	NextPage       string            `json:"next_page,omitempty"`
}

// mpCreateResponse is the response to advertisement creation
type mpCreateResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// mpSale is a sale event from the sales feed
type mpSale struct {
	AdvertisementID string    `json:"advertisement_id"`
	Price           mpPrice   `json:"price"`
	CommissionCents int64     `json:"commission_cents"`
	ShippingCents   int64     `json:"shipping_cents"`
	BuyerName       string    `json:"buyer_name"`
	SoldAt          time.Time `json:"sold_at"`
}

// mpSalesResponse is the sales feed response
type mpSalesResponse struct {
	Sales []mpSale `json:"sales"`
}

// mpErrorResponse is the API error envelope
type mpErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

func decimalToCents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// toListingStatus maps Marktplaats advertisement statuses onto the
// ledger vocabulary. Unknown statuses map to error rather than guessing.
func toListingStatus(status string) integration.ListingStatus {
	switch status {
	case "active", "reserved":
		return integration.ListingStatusActive
	case "sold":
		return integration.ListingStatusSold
	case "pending", "in_review":
		return integration.ListingStatusPending
	case "deleted", "removed", "expired":
		return integration.ListingStatusDeleted
	default:
		return integration.ListingStatusError
	}
}

func (a mpAdvertisement) toExternalListing() integration.ExternalListing {
	return integration.ExternalListing{
		ExternalID:  a.ID,
		Title:       a.Title,
		Description: a.Description,
		Price:       centsToDecimal(a.Price.AmountCents),
		URL:         a.URL,
		Status:      toListingStatus(a.Status),
		Category:    a.CategoryID,
		Brand:       a.Attributes.Brand,
		Size:        a.Attributes.Size,
		Condition:   a.Attributes.Condition,
		ImageURLs:   a.ImageURLs,
	}
}

func (s mpSale) toPlatformSale() integration.PlatformSale {
	return integration.PlatformSale{
		ExternalID:   s.AdvertisementID,
		SalePrice:    centsToDecimal(s.Price.AmountCents),
		PlatformFee:  centsToDecimal(s.CommissionCents),
		ShippingCost: centsToDecimal(s.ShippingCents),
		BuyerName:    s.BuyerName,
		SoldAt:       s.SoldAt,
	}
}

func advertisementFromDraft(draft integration.ListingDraft) mpAdvertisement {
	return mpAdvertisement{
		Title:       draft.Title,
		Description: draft.Description,
		Price:       mpPrice{AmountCents: decimalToCents(draft.Price), Currency: "EUR"},
		CategoryID:  draft.Category,
		Attributes: mpAttrs{
			Brand:     draft.Brand,
			Size:      draft.Size,
			Condition: draft.Condition,
			Color:     draft.Color,
		},
		ImageURLs: draft.ImageURLs,
	}
}
