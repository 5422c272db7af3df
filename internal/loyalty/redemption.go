package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/models"
	"github.com/lepoa-store/club-api/internal/security"
	"github.com/lepoa-store/club-api/internal/settings"
	"github.com/lepoa-store/club-api/internal/util"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// couponGenerateAttempts bounds coupon regeneration on collision.
const couponGenerateAttempts = 5

// Redeemer exchanges points for reward coupons.
type Redeemer struct {
	db     *gorm.DB
	ledger *Ledger
	clock  clockwork.Clock
}

// NewRedeemer constructs a Redeemer.
func NewRedeemer(db *gorm.DB, ledger *Ledger, clock clockwork.Clock) *Redeemer {
	return &Redeemer{db: db, ledger: ledger, clock: clock}
}

// Redeem debits the reward cost and issues a coupon in a single transaction.
//
// The balance is re-validated under a row lock on the loyalty account
// immediately before the debit, so two concurrent calls with enough points
// for one redemption cannot both succeed. A lost race surfaces as
// ErrConcurrencyConflict and is retried once before being returned.
func (r *Redeemer) Redeem(ctx context.Context, customerID, rewardID uint64) (*models.Redemption, error) {
	var reward models.Reward
	errFind := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", rewardID, true).
		First(&reward).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("loyalty: load reward: %w", errFind)
	}
	if reward.CostPoints <= 0 {
		return nil, ErrRewardNotFound
	}

	account, errAccount := r.ledger.Account(ctx, customerID)
	if errAccount != nil {
		return nil, errAccount
	}
	if account == nil {
		// Never purchased: base tier, zero balance.
		if reward.TierRequirement != nil {
			return nil, ErrTierNotEligible
		}
		return nil, ErrInsufficientPoints
	}

	if reward.TierRequirement != nil {
		tiers, errTiers := LoadTiers(ctx, r.db)
		if errTiers != nil {
			return nil, errTiers
		}
		annual, errAnnual := r.ledger.AnnualPoints(ctx, account.ID)
		if errAnnual != nil {
			return nil, errAnnual
		}
		requiredRank, ok := TierRank(tiers, *reward.TierRequirement)
		if !ok {
			return nil, fmt.Errorf("loyalty: unknown tier requirement %q", *reward.TierRequirement)
		}
		if TierFor(tiers, annual).Rank < requiredRank {
			return nil, ErrTierNotEligible
		}
	}

	redemption, errRedeem := r.redeemOnce(ctx, account.ID, &reward)
	if errors.Is(errRedeem, ErrConcurrencyConflict) {
		log.Warnf("redeem: retrying after conflict (account=%d reward=%d)", account.ID, rewardID)
		redemption, errRedeem = r.redeemOnce(ctx, account.ID, &reward)
	}
	if errRedeem != nil {
		return nil, errRedeem
	}
	log.Infof("redeem: issued coupon %s for reward %d (account=%d cost=%d)",
		util.MaskCoupon(redemption.CouponCode), rewardID, account.ID, reward.CostPoints)
	return redemption, nil
}

// redeemOnce runs one attempt of the atomic debit+insert pair.
func (r *Redeemer) redeemOnce(ctx context.Context, accountID uint64, reward *models.Reward) (*models.Redemption, error) {
	now := r.clock.Now().UTC()
	var redemption models.Redemption

	errTx := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.LoyaltyAccount
		if errLock := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, accountID).Error; errLock != nil {
			return fmt.Errorf("loyalty: lock account: %w", errLock)
		}

		redemptionID := uuid.NewString()
		if errDebit := r.ledger.DebitTx(tx, accountID, reward.CostPoints, models.EntrySourceRedemption, redemptionID); errDebit != nil {
			return errDebit
		}

		code, errCode := r.uniqueCouponCode(tx)
		if errCode != nil {
			return errCode
		}

		redemption = models.Redemption{
			ID:         redemptionID,
			AccountID:  accountID,
			RewardID:   reward.ID,
			CouponCode: code,
			Status:     models.RedemptionStatusActive,
			CostPoints: reward.CostPoints,
			CreatedAt:  now,
			ExpiresAt:  now.AddDate(0, 0, settings.CouponValidityDays()),
		}
		if errCreate := tx.Create(&redemption).Error; errCreate != nil {
			return fmt.Errorf("loyalty: create redemption: %w", errCreate)
		}
		return nil
	})
	if errTx != nil {
		if isConflict(errTx) {
			return nil, ErrConcurrencyConflict
		}
		return nil, errTx
	}
	return &redemption, nil
}

// uniqueCouponCode generates a coupon code that does not collide with an
// existing redemption. The unique index on coupon_code is the backstop.
func (r *Redeemer) uniqueCouponCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < couponGenerateAttempts; attempt++ {
		code, errGen := security.GenerateCouponCode()
		if errGen != nil {
			return "", errGen
		}
		var count int64
		if errCount := tx.Model(&models.Redemption{}).
			Where("coupon_code = ?", code).
			Count(&count).Error; errCount != nil {
			return "", fmt.Errorf("loyalty: check coupon code: %w", errCount)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("loyalty: coupon code space exhausted after %d attempts", couponGenerateAttempts)
}

// Redemptions lists an account's redemptions newest-first, applying lazy
// expiry: active coupons past their validity window are flipped to expired
// before being returned. The transition never reverses.
func (r *Redeemer) Redemptions(ctx context.Context, accountID uint64) ([]models.Redemption, error) {
	now := r.clock.Now().UTC()
	errExpire := r.db.WithContext(ctx).Model(&models.Redemption{}).
		Where("account_id = ? AND status = ? AND expires_at <= ?", accountID, models.RedemptionStatusActive, now).
		Update("status", models.RedemptionStatusExpired).Error
	if errExpire != nil {
		return nil, fmt.Errorf("loyalty: expire redemptions: %w", errExpire)
	}

	var redemptions []models.Redemption
	errFind := r.db.WithContext(ctx).
		Preload("Reward").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&redemptions).Error
	if errFind != nil {
		return nil, fmt.Errorf("loyalty: list redemptions: %w", errFind)
	}
	return redemptions, nil
}

// MarkCouponUsed consumes an active coupon. Used and expired coupons stay as
// they are.
func (r *Redeemer) MarkCouponUsed(ctx context.Context, couponCode string) error {
	now := r.clock.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.Redemption{}).
		Where("coupon_code = ? AND status = ? AND expires_at > ?", couponCode, models.RedemptionStatusActive, now).
		Updates(map[string]any{"status": models.RedemptionStatusUsed, "used_at": now})
	if result.Error != nil {
		return fmt.Errorf("loyalty: mark coupon used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRewardNotFound
	}
	return nil
}

// isConflict reports whether a transaction failed because it lost a
// concurrent-update race rather than for a lasting reason.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy")
}
