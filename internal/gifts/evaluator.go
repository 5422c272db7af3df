// Package gifts simulates gift-with-purchase promotions against a cart total.
//
// Evaluation is a pure read: it never touches inventory or the points ledger,
// and the same inputs always produce the same gift lines. Callers re-run it on
// every cart change and replace the previous result wholesale.
package gifts

import (
	"context"
	"fmt"
	"sort"

	"github.com/lepoa-store/club-api/internal/models"
	"gorm.io/gorm"
)

// AppliedGift is one gift line the cart should display. It is ephemeral and
// never persisted by this package.
type AppliedGift struct {
	RuleID    uint64  `json:"rule_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Qty       int     `json:"qty"`
	Stackable bool    `json:"stackable"`
	Threshold float64 `json:"threshold"`
}

// RuleSource supplies the active gift rules. Implemented by the database
// loader below and by the redis read-through cache.
type RuleSource interface {
	ActiveGiftRules(ctx context.Context) ([]models.GiftRule, error)
}

// Evaluator resolves a cart total and channel into applied gifts.
type Evaluator struct {
	rules RuleSource
}

// NewEvaluator constructs an Evaluator over the given rule source.
func NewEvaluator(rules RuleSource) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate loads the active rules and applies them to the cart snapshot.
func (e *Evaluator) Evaluate(ctx context.Context, cartTotal float64, channel string) ([]AppliedGift, error) {
	rules, errRules := e.rules.ActiveGiftRules(ctx)
	if errRules != nil {
		return nil, fmt.Errorf("gifts: load rules: %w", errRules)
	}
	return Apply(rules, cartTotal, channel), nil
}

// Apply runs the matching algorithm over an in-memory rule set.
//
// A rule matches when its threshold is reached and its channel filter, if
// any, equals the cart's channel. Among matching non-stackable rules only the
// one with the highest threshold applies; every matching stackable rule is
// included on top of that.
func Apply(rules []models.GiftRule, cartTotal float64, channel string) []AppliedGift {
	var winner *models.GiftRule
	var stackable []models.GiftRule

	for i := range rules {
		rule := rules[i]
		if !rule.IsActive || rule.MinCartTotal > cartTotal {
			continue
		}
		if rule.Channel != nil && *rule.Channel != channel {
			continue
		}
		if rule.Stackable {
			stackable = append(stackable, rule)
			continue
		}
		if winner == nil || rule.MinCartTotal > winner.MinCartTotal {
			winner = &rules[i]
		}
	}

	applied := make([]AppliedGift, 0, len(stackable)+1)
	if winner != nil {
		applied = append(applied, toApplied(*winner))
	}
	for _, rule := range stackable {
		applied = append(applied, toApplied(rule))
	}

	// Deterministic output for identical inputs regardless of rule order.
	sort.Slice(applied, func(i, j int) bool {
		if applied[i].Threshold != applied[j].Threshold {
			return applied[i].Threshold > applied[j].Threshold
		}
		return applied[i].RuleID < applied[j].RuleID
	})
	return applied
}

func toApplied(rule models.GiftRule) AppliedGift {
	return AppliedGift{
		RuleID:    rule.ID,
		ProductID: rule.GiftProductID,
		Name:      rule.GiftName,
		Image:     rule.GiftImage,
		Qty:       rule.Qty,
		Stackable: rule.Stackable,
		Threshold: rule.MinCartTotal,
	}
}

// DBRules loads gift rules straight from the database.
type DBRules struct {
	db *gorm.DB
}

// NewDBRules constructs a DBRules source.
func NewDBRules(db *gorm.DB) *DBRules {
	return &DBRules{db: db}
}

// ActiveGiftRules returns every active rule ordered by threshold.
func (s *DBRules) ActiveGiftRules(ctx context.Context) ([]models.GiftRule, error) {
	var rules []models.GiftRule
	errFind := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("min_cart_total ASC").
		Find(&rules).Error
	if errFind != nil {
		return nil, fmt.Errorf("gifts: query rules: %w", errFind)
	}
	return rules, nil
}
