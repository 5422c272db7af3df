package models

import "time"

// Reward is a catalog item that points can be exchanged for.
type Reward struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null"` // Display name.
	Description string `gorm:"type:text"`          // Marketing copy.
	ImageURL    string `gorm:"type:text"`          // Catalog image.

	CostPoints int64 `gorm:"not null"` // Points debited per redemption, always > 0.

	TierRequirement *string `gorm:"type:varchar(32)"` // Minimum tier id; nil means any tier.

	IsFeatured bool `gorm:"not null;default:false"` // Highlighted on the club page.
	IsActive   bool `gorm:"not null;default:true"`  // Whether the reward can be redeemed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
