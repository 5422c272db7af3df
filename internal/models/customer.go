package models

import "time"

// Customer represents a storefront customer account.
type Customer struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	Name     string `gorm:"type:text;not null"`             // Display name.
	Phone    string `gorm:"type:text"`                      // WhatsApp contact number.

	Active bool `gorm:"not null;default:true"` // Whether the customer can sign in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
