package models

import (
	"time"

	"gorm.io/datatypes"
)

// LiveCart is the write path for live-event checkouts.
//
// It shares the Order status vocabulary. Payment confirmation lands here
// first; the canonical Order row linked by Order.LiveCartID appears after a
// propagation delay, so a paid cart with no linked order is a normal
// transient state.
type LiveCart struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID primary key.

	CustomerID   *uint64 `gorm:"index"`              // Owning customer, if signed in.
	CustomerName string  `gorm:"type:text;not null"` // Name captured during the live event.

	Status string `gorm:"type:varchar(16);not null;default:'pendente'"` // Cart lifecycle status.

	Total       float64 `gorm:"type:decimal(12,2);not null"`           // Cart total including shipping.
	ShippingFee float64 `gorm:"type:decimal(12,2);not null;default:0"` // Shipping portion of the total.

	CheckoutURL string         `gorm:"type:text"`  // Payment-provider checkout link.
	Items       datatypes.JSON `gorm:"type:jsonb"` // Line-item snapshot captured at checkout.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
