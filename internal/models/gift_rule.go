package models

import "time"

// GiftRule defines a gift-with-purchase promotion threshold.
//
// Rules are read-only reference data for the cart: the evaluator simulates
// them against a cart total and never writes back. A non-stackable rule
// suppresses every other non-stackable rule with a lower threshold.
type GiftRule struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	MinCartTotal float64 `gorm:"type:decimal(12,2);not null"` // Inclusive cart-total threshold.

	GiftProductID string `gorm:"type:varchar(36);not null"` // Product granted as the gift.
	GiftName      string `gorm:"type:text;not null"`        // Gift display name.
	GiftImage     string `gorm:"type:text"`                 // Gift image URL.
	Qty           int    `gorm:"not null;default:1"`        // Units granted.

	Channel   *string `gorm:"type:varchar(32)"`       // Checkout channel filter; nil matches all.
	Stackable bool    `gorm:"not null;default:false"` // Whether the gift combines with others.
	IsActive  bool    `gorm:"not null;default:true"`  // Whether the rule is evaluated.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
