package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the mutable pre-order container. CartID is the opaque, client-held
// identity (a uuid) so a guest can keep a cart without an account; UserID is
// nil for anonymous carts. A non-nil owner has at most one cart.
type Cart struct {
	ID          uint            `gorm:"primarykey" json:"-"`
	CartID      string          `gorm:"uniqueIndex;not null" json:"cart_id"`
	UserID      *uint           `gorm:"index" json:"user_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartRefID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// ItemFor returns the line item holding productID, or nil.
func (c *Cart) ItemFor(productID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// CartItem is a (product, quantity) pair. The product reference is weak:
// stock and price are re-read from the live product at time of use.
type CartItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CartRefID uint           `gorm:"not null;index" json:"-"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	Quantity  int            `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
