package models

import "time"

// Redemption statuses.
const (
	// RedemptionStatusActive means the coupon can still be used.
	RedemptionStatusActive = "active"
	// RedemptionStatusUsed means the coupon was consumed at checkout.
	RedemptionStatusUsed = "used"
	// RedemptionStatusExpired means the validity window elapsed unused.
	RedemptionStatusExpired = "expired"
)

// Redemption records one points-for-coupon exchange.
//
// A row is created exactly once per successful redeem call, in the same
// transaction as the ledger debit. Status only moves forward:
// active -> used or active -> expired, never back.
type Redemption struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID primary key.

	AccountID uint64 `gorm:"not null;index"` // Redeeming loyalty account.
	RewardID  uint64 `gorm:"not null;index"` // Redeemed reward.

	CouponCode string `gorm:"type:varchar(16);not null;uniqueIndex"` // Globally unique coupon code.
	Status     string `gorm:"type:varchar(16);not null"`             // active, used or expired.

	CostPoints int64 `gorm:"not null"` // Points debited, snapshot of the reward cost.

	Reward Reward `gorm:"foreignKey:RewardID"` // Reward relation.

	CreatedAt time.Time  `gorm:"not null;autoCreateTime"` // Redemption timestamp.
	ExpiresAt time.Time  `gorm:"not null;index"`          // End of the coupon validity window.
	UsedAt    *time.Time // Consumption time, if used.
}
