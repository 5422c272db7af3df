package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/lepoa-store/club-api/internal/models"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{
		"customers", "loyalty_accounts", "ledger_entries", "tiers",
		"rewards", "redemptions", "gift_rules", "orders", "order_items", "live_carts",
	} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestMigrateSeedsTierLadder(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var tiers []models.Tier
	if errFind := conn.Order("rank ASC").Find(&tiers).Error; errFind != nil {
		t.Fatalf("load tiers: %v", errFind)
	}
	if len(tiers) != 4 {
		t.Fatalf("expected 4 tiers, got %d", len(tiers))
	}

	// Ranges must cover 0..inf with no gaps: each upper bound equals the
	// next lower bound and only the top tier is open-ended.
	for i, tier := range tiers {
		if i+1 < len(tiers) {
			if tier.MaxPoints == nil {
				t.Fatalf("tier %s: only the top tier may be open-ended", tier.ID)
			}
			if *tier.MaxPoints != tiers[i+1].MinPoints {
				t.Fatalf("tier %s: max %d does not meet next min %d", tier.ID, *tier.MaxPoints, tiers[i+1].MinPoints)
			}
		} else if tier.MaxPoints != nil {
			t.Fatalf("top tier %s must be open-ended", tier.ID)
		}
	}
	if tiers[0].MinPoints != 0 {
		t.Fatalf("ladder must start at 0, got %d", tiers[0].MinPoints)
	}

	// Seeding twice must not duplicate rows.
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}
	var count int64
	if errCount := conn.Model(&models.Tier{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count tiers: %v", errCount)
	}
	if count != 4 {
		t.Fatalf("expected 4 tiers after reseed, got %d", count)
	}
}
