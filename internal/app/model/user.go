package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Phone        string         `json:"phone"`
	Address      string         `json:"address"`
	Role         UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	PaymentCards []PaymentCard `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"payment_cards,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// PaymentCard is a stored payment instrument. CardID is a generated public
// identity so individual cards can be removed later.
type PaymentCard struct {
	ID         uint           `gorm:"primarykey" json:"-"`
	CardID     string         `gorm:"uniqueIndex;not null" json:"card_id"`
	UserID     uint           `gorm:"not null;index" json:"-"`
	CardNumber string         `gorm:"not null" json:"card_number"`
	ExpiryDate string         `json:"expiry_date"`
	CVV        string         `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PaymentCard) TableName() string {
	return "payment_cards"
}
