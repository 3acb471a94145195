package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primary_key"`
	Title         string                `gorm:"type:varchar(255);not null"`
	Description   string                `gorm:"type:text"`
	Price         decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Category      string                `gorm:"type:varchar(100)"`
	Brand         string                `gorm:"type:varchar(100);index"`
	Size          string                `gorm:"type:varchar(50)"`
	Color         string                `gorm:"type:varchar(50)"`
	Condition     string                `gorm:"type:varchar(50)"`
	ImageURLsJSON string                `gorm:"type:text;column:image_urls"`
	Status        catalog.ProductStatus `gorm:"type:varchar(20);not null;index"`
	CreatedAt     time.Time             `gorm:"not null"`
	UpdatedAt     time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	product := &catalog.Product{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Category:    m.Category,
		Brand:       m.Brand,
		Size:        m.Size,
		Color:       m.Color,
		Condition:   m.Condition,
		ImageURLs:   make([]string, 0),
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	if m.ImageURLsJSON != "" {
		var urls []string
		if err := json.Unmarshal([]byte(m.ImageURLsJSON), &urls); err == nil {
			product.ImageURLs = urls
		}
	}

	return product
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.ID = p.ID
	m.Title = p.Title
	m.Description = p.Description
	m.Price = p.Price
	m.Category = p.Category
	m.Brand = p.Brand
	m.Size = p.Size
	m.Color = p.Color
	m.Condition = p.Condition
	m.Status = p.Status
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt

	if len(p.ImageURLs) > 0 {
		if jsonBytes, err := json.Marshal(p.ImageURLs); err == nil {
			m.ImageURLsJSON = string(jsonBytes)
		}
	} else {
		m.ImageURLsJSON = "[]"
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
