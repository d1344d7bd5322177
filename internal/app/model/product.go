package model

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Number of leading path segments a category path needs before it contributes
// a facet value; the facet is the second segment ("root/facet/leaf...").
const categoryFacetSegment = 1

// ProductName is one localized display-name entry for a product.
type ProductName struct {
	ID          uint   `gorm:"primarykey" json:"-"`
	ProductID   uint   `gorm:"not null;index" json:"-"`
	LanguageTag string `gorm:"type:varchar(20)" json:"language_tag"`
	Value       string `gorm:"not null" json:"value"`
}

func (ProductName) TableName() string {
	return "product_names"
}

// ProductBrand is one localized brand entry for a product.
type ProductBrand struct {
	ID          uint   `gorm:"primarykey" json:"-"`
	ProductID   uint   `gorm:"not null;index" json:"-"`
	LanguageTag string `gorm:"type:varchar(20)" json:"language_tag"`
	Value       string `gorm:"not null" json:"value"`
}

func (ProductBrand) TableName() string {
	return "product_brands"
}

type Product struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	SKU           string          `gorm:"uniqueIndex;not null" json:"sku"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"quantity"`
	MainImage     []byte          `gorm:"type:bytea" json:"-"`
	CategoryPath  string          `gorm:"index" json:"category_path"` // slash-delimited taxonomy
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Names  []ProductName  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"item_name,omitempty"`
	Brands []ProductBrand `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"brand,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// DisplayName returns the first localized name, or a fallback when none exists.
func (p *Product) DisplayName() string {
	if len(p.Names) > 0 && p.Names[0].Value != "" {
		return p.Names[0].Value
	}
	return "Unknown Product"
}

// DisplayBrand returns the first localized brand, or a fallback when none exists.
func (p *Product) DisplayBrand() string {
	if len(p.Brands) > 0 && p.Brands[0].Value != "" {
		return p.Brands[0].Value
	}
	return "Unknown Brand"
}

// ImageDataURI encodes the stored image bytes as a base64 data URI.
// Images are only ever transmitted inline in JSON, never as a binary endpoint.
func (p *Product) ImageDataURI() string {
	if len(p.MainImage) == 0 {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.MainImage)
}

// CategoryFacet returns the facet segment of the category path, or "" when
// the path has too few segments to carry one.
func (p *Product) CategoryFacet() string {
	segments := strings.Split(p.CategoryPath, "/")
	if len(segments) <= categoryFacetSegment {
		return ""
	}
	return strings.TrimSpace(segments[categoryFacetSegment])
}

// IsOutOfStock reports whether the product has no on-hand quantity left.
func (p *Product) IsOutOfStock() bool {
	return p.StockQuantity <= 0
}
