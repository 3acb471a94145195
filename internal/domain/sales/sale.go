package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/domain/integration"
)

var (
	ErrSaleNotFound      = errors.New("sales: sale not found")
	ErrSaleAlreadyExists = errors.New("sales: sale already recorded for this product and platform")
	ErrInvalidSalePrice  = errors.New("sales: sale price cannot be negative")
	ErrInvalidProductID  = errors.New("sales: invalid product ID")
)

// Sale records one detected sale event. It is created exactly once per
// event and immutable afterwards, except for the accounting-sync flag.
type Sale struct {
	// ID is the unique identifier of the sale
	ID uuid.UUID
	// ProductID is the local product that was sold
	ProductID uuid.UUID
	// PlatformCode is the platform the sale happened on
	PlatformCode integration.PlatformCode
	// SalePrice is the price the item sold for
	SalePrice decimal.Decimal
	// ShippingCost is the shipping charge borne by the seller
	ShippingCost decimal.Decimal
	// PlatformFee is the platform's commission
	PlatformFee decimal.Decimal
	// PaymentFee is the payment provider's fee
	PaymentFee decimal.Decimal
	// NetProfit is SalePrice minus all fees and the original cost
	NetProfit decimal.Decimal
	// BuyerInfo is the buyer's display name or contact, when known
	BuyerInfo string
	// SoldAt is when the sale happened on the platform
	SoldAt time.Time
	// SyncedToAccounting reports whether the sale reached the accounting sink
	SyncedToAccounting bool
	// AccountingRowRef is the sink's reference for the appended row
	AccountingRowRef string
	// CreatedAt is when this record was created
	CreatedAt time.Time
}

// NewSale creates a new sale record
func NewSale(productID uuid.UUID, code integration.PlatformCode, salePrice decimal.Decimal, soldAt time.Time) (*Sale, error) {
	if productID == uuid.Nil {
		return nil, ErrInvalidProductID
	}
	if !code.IsValid() {
		return nil, integration.ErrInvalidPlatformCode
	}
	if salePrice.IsNegative() {
		return nil, ErrInvalidSalePrice
	}
	if soldAt.IsZero() {
		soldAt = time.Now()
	}

	return &Sale{
		ID:           uuid.New(),
		ProductID:    productID,
		PlatformCode: code,
		SalePrice:    salePrice,
		NetProfit:    salePrice,
		SoldAt:       soldAt,
		CreatedAt:    time.Now(),
	}, nil
}

// SetFees sets the fee breakdown and recomputes the net profit
func (s *Sale) SetFees(shippingCost, platformFee, paymentFee, originalCost decimal.Decimal) {
	s.ShippingCost = shippingCost
	s.PlatformFee = platformFee
	s.PaymentFee = paymentFee
	s.NetProfit = s.SalePrice.
		Sub(shippingCost).
		Sub(platformFee).
		Sub(paymentFee).
		Sub(originalCost)
}

// MarkAccountingSynced records a successful forward to the accounting sink
func (s *Sale) MarkAccountingSynced(rowRef string) {
	s.SyncedToAccounting = true
	s.AccountingRowRef = rowRef
}

// ---------------------------------------------------------------------------
// Repository and Sink Interfaces
// ---------------------------------------------------------------------------

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// Save creates or updates a sale
	Save(ctx context.Context, sale *Sale) error

	// FindByID finds a sale by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByProduct finds all sales for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Sale, error)

	// FindAll finds all sales, newest first
	FindAll(ctx context.Context) ([]Sale, error)

	// ExistsByProductAndPlatform checks whether a sale was already recorded
	// for the (product, platform) pair. Guards the once-per-event invariant.
	ExistsByProductAndPlatform(ctx context.Context, productID uuid.UUID, code integration.PlatformCode) (bool, error)

	// FindUnsynced finds sales not yet forwarded to the accounting sink
	FindUnsynced(ctx context.Context) ([]Sale, error)
}

// AccountingSink is the port to the external accounting collaborator.
// AppendSaleRow returns a sink-specific row reference on success.
type AccountingSink interface {
	AppendSaleRow(ctx context.Context, sale *Sale, productTitle string) (string, error)
}
