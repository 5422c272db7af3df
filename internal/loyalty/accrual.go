package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Accrual turns confirmed payments into point grants.
type Accrual struct {
	db     *gorm.DB
	ledger *Ledger
	clock  clockwork.Clock
}

// NewAccrual constructs an Accrual.
func NewAccrual(db *gorm.DB, ledger *Ledger, clock clockwork.Clock) *Accrual {
	return &Accrual{db: db, ledger: ledger, clock: clock}
}

// PointsForPurchase converts an order total into points using the multiplier
// of the tier held at the moment of purchase. The result is floored, never
// rounded up.
func PointsForPurchase(tier models.Tier, total float64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Floor(total * MultiplierFor(tier)))
}

// OnOrderPaid grants purchase points for a paid order.
//
// The grant is idempotent on the order id: re-delivery of the paid event is a
// no-op. Guest orders without a customer earn nothing. The multiplier applied
// is the tier at this moment; later tier changes never recompute past grants.
func (a *Accrual) OnOrderPaid(ctx context.Context, orderID string) (int64, error) {
	var order models.Order
	errFind := a.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("loyalty: order %s not found", orderID)
		}
		return 0, fmt.Errorf("loyalty: load order: %w", errFind)
	}
	if order.Status != models.OrderStatusPaid {
		return 0, fmt.Errorf("loyalty: order %s is not paid (status=%s)", orderID, order.Status)
	}
	if order.CustomerID == nil {
		return 0, nil
	}

	account, errAccount := a.ledger.EnsureAccount(ctx, *order.CustomerID)
	if errAccount != nil {
		return 0, errAccount
	}

	granted, errGranted := a.ledger.HasEntry(ctx, account.ID, models.EntrySourcePurchase, order.ID)
	if errGranted != nil {
		return 0, errGranted
	}
	if granted {
		log.Debugf("accrual: order %s already granted, skipping", order.ID)
		return 0, nil
	}

	tiers, errTiers := LoadTiers(ctx, a.db)
	if errTiers != nil {
		return 0, errTiers
	}
	annual, errAnnual := a.ledger.AnnualPoints(ctx, account.ID)
	if errAnnual != nil {
		return 0, errAnnual
	}
	tier := TierFor(tiers, annual)

	points := PointsForPurchase(tier, order.Total)
	if points == 0 {
		return 0, nil
	}

	earnedAt := a.clock.Now().UTC()
	if order.PaidAt != nil {
		earnedAt = order.PaidAt.UTC()
	}
	if errGrant := a.ledger.Grant(ctx, account.ID, points, earnedAt, models.EntrySourcePurchase, order.ID); errGrant != nil {
		return 0, errGrant
	}

	log.Infof("accrual: granted %d points for order %s (tier=%s multiplier=%.2f)", points, order.ID, tier.ID, tier.Multiplier)
	return points, nil
}
