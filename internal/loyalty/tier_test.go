package loyalty

import (
	"context"
	"testing"

	"github.com/lepoa-store/club-api/internal/models"
)

func loadTestTiers(t *testing.T) []models.Tier {
	t.Helper()
	conn := setupLoyaltyDB(t)
	tiers, errLoad := LoadTiers(context.Background(), conn)
	if errLoad != nil {
		t.Fatalf("load tiers: %v", errLoad)
	}
	return tiers
}

func TestTierForBoundariesBelongToHigherTier(t *testing.T) {
	tiers := loadTestTiers(t)

	cases := []struct {
		points int64
		want   string
	}{
		{0, models.TierPoa},
		{999, models.TierPoa},
		{1000, models.TierPoaGold}, // exactly on the boundary
		{2999, models.TierPoaGold},
		{3000, models.TierPoaPlatinum},
		{5999, models.TierPoaPlatinum},
		{6000, models.TierPoaBlack},
		{1_000_000, models.TierPoaBlack},
	}
	for _, tc := range cases {
		if got := TierFor(tiers, tc.points); got.ID != tc.want {
			t.Fatalf("TierFor(%d) = %s, want %s", tc.points, got.ID, tc.want)
		}
	}
}

func TestTierForIsMonotonic(t *testing.T) {
	tiers := loadTestTiers(t)

	lastRank := -1
	for points := int64(0); points <= 10_000; points += 50 {
		rank := TierFor(tiers, points).Rank
		if rank < lastRank {
			t.Fatalf("tier rank decreased at %d points: %d -> %d", points, lastRank, rank)
		}
		lastRank = rank
	}
}

func TestProgressToNext(t *testing.T) {
	tiers := loadTestTiers(t)

	progress := ProgressToNext(tiers, 500)
	if progress.NextTierName != "Poá Gold" {
		t.Fatalf("expected next tier Poá Gold, got %q", progress.NextTierName)
	}
	if progress.ProgressPercent != 50 {
		t.Fatalf("expected 50%%, got %d", progress.ProgressPercent)
	}
	if progress.PointsNeeded != 500 {
		t.Fatalf("expected 500 points needed, got %d", progress.PointsNeeded)
	}

	progress = ProgressToNext(tiers, 4500)
	if progress.NextTierName != "Poá Black" {
		t.Fatalf("expected next tier Poá Black, got %q", progress.NextTierName)
	}
	if progress.ProgressPercent != 50 {
		t.Fatalf("expected 50%%, got %d", progress.ProgressPercent)
	}
}

func TestProgressToNextAtTopTier(t *testing.T) {
	tiers := loadTestTiers(t)

	progress := ProgressToNext(tiers, 9000)
	if progress.NextTierName != "" {
		t.Fatalf("top tier must not name a next tier, got %q", progress.NextTierName)
	}
	if progress.ProgressPercent != 100 {
		t.Fatalf("top tier progress must be 100, got %d", progress.ProgressPercent)
	}
	if progress.PointsNeeded != 0 {
		t.Fatalf("top tier must need 0 points, got %d", progress.PointsNeeded)
	}
}

func TestPointsForPurchaseFloorsByTierMultiplier(t *testing.T) {
	tiers := loadTestTiers(t)

	gold := TierFor(tiers, 1000)
	if got := PointsForPurchase(gold, 199.90); got != 219 {
		t.Fatalf("expected floor(199.90*1.1)=219, got %d", got)
	}

	base := TierFor(tiers, 0)
	if got := PointsForPurchase(base, 199.90); got != 199 {
		t.Fatalf("expected floor(199.90*1.0)=199, got %d", got)
	}

	if got := PointsForPurchase(base, 0); got != 0 {
		t.Fatalf("expected 0 points for zero total, got %d", got)
	}
}

func TestTierRank(t *testing.T) {
	tiers := loadTestTiers(t)

	rank, ok := TierRank(tiers, models.TierPoaPlatinum)
	if !ok || rank != 2 {
		t.Fatalf("expected rank 2 for platinum, got %d (ok=%v)", rank, ok)
	}
	if _, ok := TierRank(tiers, "unknown"); ok {
		t.Fatalf("unknown tier must not resolve")
	}
}
