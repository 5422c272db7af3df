package loyalty

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/models"
)

func TestRedeemIssuesCouponAndDebits(t *testing.T) {
	conn := setupLoyaltyDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(conn, clock)
	redeemer := NewRedeemer(conn, ledger, clock)
	ctx := context.Background()

	account := setupAccount(t, conn, 1)
	if errGrant := ledger.Grant(ctx, account.ID, 500, clock.Now(), models.EntrySourcePurchase, "order-1"); errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	reward := models.Reward{Name: "Frete grátis", CostPoints: 300, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}

	redemption, errRedeem := redeemer.Redeem(ctx, 1, reward.ID)
	if errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}
	if redemption.Status != models.RedemptionStatusActive {
		t.Fatalf("expected active redemption, got %s", redemption.Status)
	}
	if !strings.HasPrefix(redemption.CouponCode, "CLUB-") {
		t.Fatalf("unexpected coupon code %s", redemption.CouponCode)
	}
	if want := clock.Now().AddDate(0, 0, 30); !redemption.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, redemption.ExpiresAt)
	}

	balance, errBalance := ledger.CurrentPoints(ctx, account.ID)
	if errBalance != nil {
		t.Fatalf("current points: %v", errBalance)
	}
	if balance != 200 {
		t.Fatalf("expected balance 200 after redeem, got %d", balance)
	}
}

func TestRedeemRewardNotFound(t *testing.T) {
	conn := setupLoyaltyDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(conn, clock)
	redeemer := NewRedeemer(conn, ledger, clock)
	ctx := context.Background()

	setupAccount(t, conn, 1)

	if _, errRedeem := redeemer.Redeem(ctx, 1, 999); !errors.Is(errRedeem, ErrRewardNotFound) {
		t.Fatalf("missing reward: expected ErrRewardNotFound, got %v", errRedeem)
	}

	inactive := models.Reward{Name: "Desativado", CostPoints: 10, IsActive: false}
	if errCreate := conn.Create(&inactive).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}
	if _, errRedeem := redeemer.Redeem(ctx, 1, inactive.ID); !errors.Is(errRedeem, ErrRewardNotFound) {
		t.Fatalf("inactive reward: expected ErrRewardNotFound, got %v", errRedeem)
	}
}

func TestRedeemTierNotEligible(t *testing.T) {
	conn := setupLoyaltyDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(conn, clock)
	redeemer := NewRedeemer(conn, ledger, clock)
	ctx := context.Background()

	account := setupAccount(t, conn, 1)
	// 500 annual points places the account on the base tier.
	if errGrant := ledger.Grant(ctx, account.ID, 500, clock.Now(), models.EntrySourcePurchase, "order-1"); errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}

	requirement := models.TierPoaPlatinum
	reward := models.Reward{Name: "Evento exclusivo", CostPoints: 100, TierRequirement: &requirement, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}

	if _, errRedeem := redeemer.Redeem(ctx, 1, reward.ID); !errors.Is(errRedeem, ErrTierNotEligible) {
		t.Fatalf("expected ErrTierNotEligible, got %v", errRedeem)
	}

	// No partial state: the balance is untouched.
	balance, errBalance := ledger.CurrentPoints(ctx, account.ID)
	if errBalance != nil {
		t.Fatalf("current points: %v", errBalance)
	}
	if balance != 500 {
		t.Fatalf("expected balance 500, got %d", balance)
	}
}

func TestRedeemInsufficientPoints(t *testing.T) {
	conn := setupLoyaltyDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(conn, clock)
	redeemer := NewRedeemer(conn, ledger, clock)
	ctx := context.Background()

	account := setupAccount(t, conn, 1)
	if errGrant := ledger.Grant(ctx, account.ID, 100, clock.Now(), models.EntrySourcePurchase, "order-1"); errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	reward := models.Reward{Name: "Brinde", CostPoints: 300, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}

	if _, errRedeem := redeemer.Redeem(ctx, 1, reward.ID); !errors.Is(errRedeem, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", errRedeem)
	}

	var count int64
	if errCount := conn.Model(&models.Redemption{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count redemptions: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("failed redeem must not create a redemption, got %d rows", count)
	}
}

func TestRedeemTwiceWithPointsForOne(t *testing.T) {
	conn := setupLoyaltyDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(conn, clock)
	redeemer := NewRedeemer(conn, ledger, clock)
	ctx := context.Background()

	account := setupAccount(t, conn, 1)
	if errGrant := ledger.Grant(ctx, account.ID, 300, clock.Now(), models.EntrySourcePurchase, "order-1"); errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	reward := models.Reward{Name: "Brinde", CostPoints: 300, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = redeemer.Redeem(ctx, 1, reward.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, errRedeem := range results {
		if errRedeem == nil {
			succeeded++
			continue
		}
		if !errors.Is(errRedeem, ErrInsufficientPoints) && !errors.Is(errRedeem, ErrConcurrencyConflict) {
			t.Fatalf("unexpected failure: %v", errRedeem)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful redemption, got %d", succeeded)
	}

	// Exactly one debit committed; balance reflects a single redemption.
	balance, errBalance := ledger.CurrentPoints(ctx, account.ID)
	if errBalance != nil {
		t.Fatalf("current points: %v", errBalance)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
	var count int64
	if errCount := conn.Model(&models.Redemption{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count redemptions: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected exactly one redemption row, got %d", count)
	}
}

func TestRedemptionsLazilyExpire(t *testing.T) {
	conn := setupLoyaltyDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(conn, clock)
	redeemer := NewRedeemer(conn, ledger, clock)
	ctx := context.Background()

	account := setupAccount(t, conn, 1)
	if errGrant := ledger.Grant(ctx, account.ID, 300, clock.Now(), models.EntrySourcePurchase, "order-1"); errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	reward := models.Reward{Name: "Brinde", CostPoints: 300, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}
	if _, errRedeem := redeemer.Redeem(ctx, 1, reward.ID); errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}

	// Still active one day before the window closes.
	clock.Advance(29 * 24 * time.Hour)
	redemptions, errList := redeemer.Redemptions(ctx, account.ID)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(redemptions) != 1 || redemptions[0].Status != models.RedemptionStatusActive {
		t.Fatalf("expected one active redemption, got %+v", redemptions)
	}

	clock.Advance(48 * time.Hour)
	redemptions, errList = redeemer.Redemptions(ctx, account.ID)
	if errList != nil {
		t.Fatalf("list after expiry: %v", errList)
	}
	if len(redemptions) != 1 || redemptions[0].Status != models.RedemptionStatusExpired {
		t.Fatalf("expected expired redemption, got %+v", redemptions)
	}

	// Expired coupons cannot be consumed.
	if errUse := redeemer.MarkCouponUsed(ctx, redemptions[0].CouponCode); errUse == nil {
		t.Fatalf("expected expired coupon consumption to fail")
	}
}

func TestMarkCouponUsedOnce(t *testing.T) {
	conn := setupLoyaltyDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedger(conn, clock)
	redeemer := NewRedeemer(conn, ledger, clock)
	ctx := context.Background()

	account := setupAccount(t, conn, 1)
	if errGrant := ledger.Grant(ctx, account.ID, 300, clock.Now(), models.EntrySourcePurchase, "order-1"); errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	reward := models.Reward{Name: "Brinde", CostPoints: 300, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}
	redemption, errRedeem := redeemer.Redeem(ctx, 1, reward.ID)
	if errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}

	if errUse := redeemer.MarkCouponUsed(ctx, redemption.CouponCode); errUse != nil {
		t.Fatalf("mark used: %v", errUse)
	}
	if errUse := redeemer.MarkCouponUsed(ctx, redemption.CouponCode); errUse == nil {
		t.Fatalf("second consumption must fail")
	}
}
