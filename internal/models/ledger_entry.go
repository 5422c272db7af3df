package models

import "time"

// Ledger entry sources describe what produced a point movement.
const (
	// EntrySourcePurchase marks points granted for a paid order.
	EntrySourcePurchase = "purchase"
	// EntrySourceRedemption marks points debited by a reward redemption.
	EntrySourceRedemption = "redemption"
	// EntrySourceExpiryAdjustment marks a write-off of expired points.
	EntrySourceExpiryAdjustment = "expiry_adjustment"
	// EntrySourceAdjustment marks a manual grant or debit by an admin.
	EntrySourceAdjustment = "adjustment"
)

// LedgerEntry is one immutable point movement on a loyalty account.
//
// Positive amounts are grants, negative amounts are debits. Rows are
// append-only: expired grants stay in the table and are excluded from balance
// queries at read time by their ExpiresAt.
type LedgerEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AccountID uint64 `gorm:"not null;index"` // Owning loyalty account.

	Amount   int64  `gorm:"not null"`                // Signed points delta.
	Source   string `gorm:"type:text;not null"`      // Movement source, see EntrySource constants.
	SourceID string `gorm:"type:text;index;size:64"` // Originating record (order id, redemption id).

	EarnedAt  time.Time  `gorm:"not null;index"` // When the points were earned or spent.
	ExpiresAt *time.Time `gorm:"index"`          // Grant expiry; nil for debits.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
