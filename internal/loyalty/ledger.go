package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/models"
	"github.com/lepoa-store/club-api/internal/settings"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is the append-only points ledger.
//
// Balances are derived sums over ledger_entries, never stored counters:
// concurrent grants need no mutual exclusion beyond per-row atomicity, and
// expiry is applied at read time by filtering on expires_at instead of a
// background sweep.
type Ledger struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewLedger constructs a Ledger.
func NewLedger(db *gorm.DB, clock clockwork.Clock) *Ledger {
	return &Ledger{db: db, clock: clock}
}

// EnsureAccount returns the loyalty account for a customer, creating it on
// first use.
func (l *Ledger) EnsureAccount(ctx context.Context, customerID uint64) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	errFind := l.db.WithContext(ctx).
		Where(models.LoyaltyAccount{CustomerID: customerID}).
		FirstOrCreate(&account).Error
	if errFind != nil {
		return nil, fmt.Errorf("loyalty: ensure account: %w", errFind)
	}
	return &account, nil
}

// Account returns the loyalty account for a customer, if one exists.
func (l *Ledger) Account(ctx context.Context, customerID uint64) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	errFind := l.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&account).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errFind
	}
	return &account, nil
}

// Grant appends a positive entry whose points expire after the configured
// validity window.
func (l *Ledger) Grant(ctx context.Context, accountID uint64, amount int64, earnedAt time.Time, source, sourceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	expiresAt := earnedAt.AddDate(0, 0, settings.PointsValidityDays())
	entry := models.LedgerEntry{
		AccountID: accountID,
		Amount:    amount,
		Source:    source,
		SourceID:  sourceID,
		EarnedAt:  earnedAt,
		ExpiresAt: &expiresAt,
	}
	if errCreate := l.db.WithContext(ctx).Create(&entry).Error; errCreate != nil {
		return fmt.Errorf("loyalty: grant: %w", errCreate)
	}
	return nil
}

// Debit appends a negative entry after re-validating the balance under a row
// lock on the account, so two concurrent debits cannot both spend the same
// points.
func (l *Ledger) Debit(ctx context.Context, accountID uint64, amount int64, source, sourceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.LoyaltyAccount
		if errLock := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, accountID).Error; errLock != nil {
			return fmt.Errorf("loyalty: lock account: %w", errLock)
		}
		return l.DebitTx(tx, accountID, amount, source, sourceID)
	})
}

// DebitTx appends a debit inside an existing transaction. The caller must
// already hold the account row lock; the balance is re-read through tx so the
// check and the append see the same snapshot.
func (l *Ledger) DebitTx(tx *gorm.DB, accountID uint64, amount int64, source, sourceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	now := l.clock.Now().UTC()
	balance, errBalance := currentPoints(tx, accountID, now)
	if errBalance != nil {
		return errBalance
	}
	if balance < amount {
		return ErrInsufficientPoints
	}
	entry := models.LedgerEntry{
		AccountID: accountID,
		Amount:    -amount,
		Source:    source,
		SourceID:  sourceID,
		EarnedAt:  now,
	}
	if errCreate := tx.Create(&entry).Error; errCreate != nil {
		return fmt.Errorf("loyalty: debit: %w", errCreate)
	}
	return nil
}

// GrantAdjustment appends a manual grant with the standard validity window.
func (l *Ledger) GrantAdjustment(ctx context.Context, accountID uint64, amount int64, adjustmentID string) error {
	return l.Grant(ctx, accountID, amount, l.clock.Now().UTC(), models.EntrySourceAdjustment, adjustmentID)
}

// DebitAdjustment appends a manual debit under the usual balance check.
func (l *Ledger) DebitAdjustment(ctx context.Context, accountID uint64, amount int64, adjustmentID string) error {
	return l.Debit(ctx, accountID, amount, models.EntrySourceAdjustment, adjustmentID)
}

// Entries lists an account's ledger entries newest-first.
func (l *Ledger) Entries(ctx context.Context, accountID uint64) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	errFind := l.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("earned_at DESC, id DESC").
		Find(&entries).Error
	if errFind != nil {
		return nil, fmt.Errorf("loyalty: list entries: %w", errFind)
	}
	return entries, nil
}

// CurrentPoints returns the spendable balance: non-expired grants minus all
// debits, as of now.
func (l *Ledger) CurrentPoints(ctx context.Context, accountID uint64) (int64, error) {
	return currentPoints(l.db.WithContext(ctx), accountID, l.clock.Now().UTC())
}

// AnnualPoints returns the grants earned in the trailing validity window.
// This is the tier-placement total: unlike the spendable balance it ignores
// debits.
func (l *Ledger) AnnualPoints(ctx context.Context, accountID uint64) (int64, error) {
	now := l.clock.Now().UTC()
	windowStart := now.AddDate(0, 0, -settings.PointsValidityDays())

	var total int64
	errScan := l.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_id = ? AND amount > 0 AND earned_at > ? AND earned_at <= ?", accountID, windowStart, now).
		Scan(&total).Error
	if errScan != nil {
		return 0, fmt.Errorf("loyalty: annual points: %w", errScan)
	}
	return total, nil
}

// HasEntry reports whether an entry with the given source pair already
// exists, for idempotent event handling.
func (l *Ledger) HasEntry(ctx context.Context, accountID uint64, source, sourceID string) (bool, error) {
	var count int64
	errCount := l.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("account_id = ? AND source = ? AND source_id = ?", accountID, source, sourceID).
		Count(&count).Error
	if errCount != nil {
		return false, fmt.Errorf("loyalty: check entry: %w", errCount)
	}
	return count > 0, nil
}

// ExpiringWithin returns the points that will expire within the given number
// of days, net of debits.
//
// Debits are netted FIFO: the oldest live grants are treated as spent first,
// so points the account has already used are not reported as expiring.
func (l *Ledger) ExpiringWithin(ctx context.Context, accountID uint64, days int) (int64, error) {
	now := l.clock.Now().UTC()
	deadline := now.AddDate(0, 0, days)

	var grants []models.LedgerEntry
	errFind := l.db.WithContext(ctx).
		Where("account_id = ? AND amount > 0 AND expires_at > ?", accountID, now).
		Order("earned_at ASC").
		Find(&grants).Error
	if errFind != nil {
		return 0, fmt.Errorf("loyalty: load grants: %w", errFind)
	}

	var debited int64
	errScan := l.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(-amount), 0)").
		Where("account_id = ? AND amount < 0", accountID).
		Scan(&debited).Error
	if errScan != nil {
		return 0, fmt.Errorf("loyalty: sum debits: %w", errScan)
	}

	var expiring int64
	for _, grant := range grants {
		remaining := grant.Amount
		if debited > 0 {
			consumed := min(debited, remaining)
			remaining -= consumed
			debited -= consumed
		}
		if remaining == 0 {
			continue
		}
		if grant.ExpiresAt != nil && !grant.ExpiresAt.After(deadline) {
			expiring += remaining
		}
	}
	return expiring, nil
}

// currentPoints computes the spendable balance through the given handle,
// which may be a transaction holding the account lock.
func currentPoints(tx *gorm.DB, accountID uint64, now time.Time) (int64, error) {
	var total int64
	errScan := tx.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_id = ? AND (amount < 0 OR expires_at > ?)", accountID, now).
		Scan(&total).Error
	if errScan != nil {
		return 0, fmt.Errorf("loyalty: current points: %w", errScan)
	}
	// Expiry can write off grants that debits were already netted against,
	// which would take the raw sum below zero.
	if total < 0 {
		total = 0
	}
	return total, nil
}
