package models

import "time"

// LoyaltyAccount anchors a customer's points ledger.
//
// Balances and tiers are never stored here: the spendable balance and the
// trailing-12-month total are derived sums over LedgerEntry rows, and the tier
// is recomputed from the annual total on read. The row exists so redemptions
// have a single record to lock when they re-validate the balance.
type LoyaltyAccount struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerID uint64 `gorm:"not null;uniqueIndex"` // Owning customer, one account each.

	Customer Customer `gorm:"foreignKey:CustomerID"` // Customer relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // First-purchase timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
