package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/sales"
)

// SaleModel is the persistence model for the Sale domain entity. The
// (product_id, platform_code) pair is unique, which enforces the
// once-per-event invariant at the storage level.
type SaleModel struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primary_key"`
	ProductID          uuid.UUID                `gorm:"type:uuid;not null;index:idx_sales_product;uniqueIndex:idx_sales_product_platform,priority:1"`
	PlatformCode       integration.PlatformCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_sales_product_platform,priority:2"`
	SalePrice          decimal.Decimal          `gorm:"type:decimal(12,2);not null"`
	ShippingCost       decimal.Decimal          `gorm:"type:decimal(12,2);not null;default:0"`
	PlatformFee        decimal.Decimal          `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentFee         decimal.Decimal          `gorm:"type:decimal(12,2);not null;default:0"`
	NetProfit          decimal.Decimal          `gorm:"type:decimal(12,2);not null;default:0"`
	BuyerInfo          string                   `gorm:"type:varchar(255)"`
	SoldAt             time.Time                `gorm:"not null;index"`
	SyncedToAccounting bool                     `gorm:"not null;default:false;index"`
	AccountingRowRef   string                   `gorm:"type:varchar(100)"`
	CreatedAt          time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale entity.
func (m *SaleModel) ToDomain() *sales.Sale {
	return &sales.Sale{
		ID:                 m.ID,
		ProductID:          m.ProductID,
		PlatformCode:       m.PlatformCode,
		SalePrice:          m.SalePrice,
		ShippingCost:       m.ShippingCost,
		PlatformFee:        m.PlatformFee,
		PaymentFee:         m.PaymentFee,
		NetProfit:          m.NetProfit,
		BuyerInfo:          m.BuyerInfo,
		SoldAt:             m.SoldAt,
		SyncedToAccounting: m.SyncedToAccounting,
		AccountingRowRef:   m.AccountingRowRef,
		CreatedAt:          m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Sale entity.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.ID = s.ID
	m.ProductID = s.ProductID
	m.PlatformCode = s.PlatformCode
	m.SalePrice = s.SalePrice
	m.ShippingCost = s.ShippingCost
	m.PlatformFee = s.PlatformFee
	m.PaymentFee = s.PaymentFee
	m.NetProfit = s.NetProfit
	m.BuyerInfo = s.BuyerInfo
	m.SoldAt = s.SoldAt
	m.SyncedToAccounting = s.SyncedToAccounting
	m.AccountingRowRef = s.AccountingRowRef
	m.CreatedAt = s.CreatedAt
}

// SaleModelFromDomain creates a new persistence model from a domain Sale entity.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}
