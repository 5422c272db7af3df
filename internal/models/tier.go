package models

import "gorm.io/datatypes"

// Tier ids in ascending rank order.
const (
	TierPoa         = "poa"
	TierPoaGold     = "poa_gold"
	TierPoaPlatinum = "poa_platinum"
	TierPoaBlack    = "poa_black"
)

// Tier defines one loyalty rank as a half-open annual-points range.
//
// Rows are static reference data seeded at migration time, ordered by Rank.
// MaxPoints is the exclusive upper bound; nil means the range is open-ended
// (top tier). Together the rows cover every non-negative point total with no
// gaps or overlaps.
type Tier struct {
	ID string `gorm:"type:varchar(32);primaryKey"` // Tier identifier, e.g. "poa_gold".

	Name string `gorm:"type:text;not null"`   // Display name, e.g. "Poá Gold".
	Rank int    `gorm:"not null;uniqueIndex"` // Ascending position in the ladder.

	MinPoints int64  `gorm:"not null"` // Inclusive annual-points lower bound.
	MaxPoints *int64 // Exclusive annual-points upper bound; nil for the top tier.

	Multiplier float64 `gorm:"type:decimal(4,2);not null"` // Points earned per currency unit spent.

	Color    string         `gorm:"type:text"`  // Storefront accent color.
	Benefits datatypes.JSON `gorm:"type:jsonb"` // Benefit copy lines in JSON.
}
