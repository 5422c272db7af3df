package loyalty

import (
	"context"
	"fmt"

	"github.com/lepoa-store/club-api/internal/models"
	"gorm.io/gorm"
)

// TierProgress describes how far an account is into its current tier.
type TierProgress struct {
	ProgressPercent int    `json:"progress_percent"`
	PointsNeeded    int64  `json:"points_needed"`
	NextTierName    string `json:"next_tier_name,omitempty"`
}

// LoadTiers returns the tier ladder in ascending rank order.
func LoadTiers(ctx context.Context, db *gorm.DB) ([]models.Tier, error) {
	var tiers []models.Tier
	if errFind := db.WithContext(ctx).Order("rank ASC").Find(&tiers).Error; errFind != nil {
		return nil, fmt.Errorf("loyalty: load tiers: %w", errFind)
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("loyalty: tier ladder not seeded")
	}
	return tiers, nil
}

// TierFor places an annual-points total on the ladder: the highest tier whose
// MinPoints is less than or equal to the total. Boundaries belong to the
// higher tier, so exactly 1000 annual points is Poá Gold, not Poá.
func TierFor(tiers []models.Tier, annualPoints int64) models.Tier {
	current := tiers[0]
	for _, tier := range tiers {
		if tier.MinPoints <= annualPoints {
			current = tier
		}
	}
	return current
}

// MultiplierFor returns the points-per-currency-unit rate of a tier. Grant
// calculations use the tier held at purchase time; later tier changes never
// recompute past grants.
func MultiplierFor(tier models.Tier) float64 {
	return tier.Multiplier
}

// NextTier returns the tier directly above the given one, or nil at the top.
func NextTier(tiers []models.Tier, current models.Tier) *models.Tier {
	for i := range tiers {
		if tiers[i].ID == current.ID && i+1 < len(tiers) {
			return &tiers[i+1]
		}
	}
	return nil
}

// TierRank returns the ladder position of a tier id.
func TierRank(tiers []models.Tier, id string) (int, bool) {
	for _, tier := range tiers {
		if tier.ID == id {
			return tier.Rank, true
		}
	}
	return 0, false
}

// ProgressToNext reports progress from the current tier towards the next one.
// At the top tier progress is pinned to 100 and no next tier is named.
func ProgressToNext(tiers []models.Tier, annualPoints int64) TierProgress {
	current := TierFor(tiers, annualPoints)
	next := NextTier(tiers, current)
	if next == nil {
		return TierProgress{ProgressPercent: 100}
	}

	span := next.MinPoints - current.MinPoints
	into := annualPoints - current.MinPoints
	percent := int(into * 100 / span)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	needed := next.MinPoints - annualPoints
	if needed < 0 {
		needed = 0
	}
	return TierProgress{
		ProgressPercent: percent,
		PointsNeeded:    needed,
		NextTierName:    next.Name,
	}
}
