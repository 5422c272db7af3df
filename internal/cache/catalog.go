// Package cache holds redis read-through caches for catalog reference data.
//
// Gift rules and rewards are read on every cart evaluation and club page
// load but change only through the admin API, so they cache well. Every
// cache path fails open: a redis error degrades to a database read, never to
// a request failure.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lepoa-store/club-api/internal/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	giftRulesKey = "club:gift_rules:active"
	rewardsKey   = "club:rewards:active"

	catalogTTL = 5 * time.Minute
)

// Catalog serves gift rules and rewards through redis. A nil redis client is
// valid and means every read goes straight to the database.
type Catalog struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewCatalog constructs a Catalog.
func NewCatalog(db *gorm.DB, rds *redis.Client) *Catalog {
	return &Catalog{db: db, redis: rds}
}

// ActiveGiftRules returns the active gift rules ordered by threshold.
func (c *Catalog) ActiveGiftRules(ctx context.Context) ([]models.GiftRule, error) {
	var rules []models.GiftRule
	if c.cached(ctx, giftRulesKey, &rules) {
		return rules, nil
	}

	errFind := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("min_cart_total ASC").
		Find(&rules).Error
	if errFind != nil {
		return nil, fmt.Errorf("cache: query gift rules: %w", errFind)
	}

	c.store(ctx, giftRulesKey, rules)
	return rules, nil
}

// ActiveRewards returns the active rewards, featured first, cheapest first.
func (c *Catalog) ActiveRewards(ctx context.Context) ([]models.Reward, error) {
	var rewards []models.Reward
	if c.cached(ctx, rewardsKey, &rewards) {
		return rewards, nil
	}

	errFind := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("is_featured DESC, cost_points ASC").
		Find(&rewards).Error
	if errFind != nil {
		return nil, fmt.Errorf("cache: query rewards: %w", errFind)
	}

	c.store(ctx, rewardsKey, rewards)
	return rewards, nil
}

// InvalidateGiftRules drops the gift rule cache after an admin write.
func (c *Catalog) InvalidateGiftRules(ctx context.Context) {
	c.invalidate(ctx, giftRulesKey)
}

// InvalidateRewards drops the reward cache after an admin write.
func (c *Catalog) InvalidateRewards(ctx context.Context) {
	c.invalidate(ctx, rewardsKey)
}

func (c *Catalog) cached(ctx context.Context, key string, out interface{}) bool {
	if c.redis == nil {
		return false
	}
	payload, errGet := c.redis.Get(ctx, key).Bytes()
	if errGet != nil {
		if errGet != redis.Nil {
			log.WithError(errGet).Warnf("cache: read %s failed", key)
		}
		return false
	}
	if errDecode := json.Unmarshal(payload, out); errDecode != nil {
		log.WithError(errDecode).Warnf("cache: decode %s failed", key)
		c.invalidate(ctx, key)
		return false
	}
	return true
}

func (c *Catalog) store(ctx context.Context, key string, value interface{}) {
	if c.redis == nil {
		return
	}
	payload, errEncode := json.Marshal(value)
	if errEncode != nil {
		log.WithError(errEncode).Warnf("cache: encode %s failed", key)
		return
	}
	if errSet := c.redis.Set(ctx, key, payload, catalogTTL).Err(); errSet != nil {
		log.WithError(errSet).Warnf("cache: write %s failed", key)
	}
}

func (c *Catalog) invalidate(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	if errDel := c.redis.Del(ctx, key).Err(); errDel != nil {
		log.WithError(errDel).Warnf("cache: invalidate %s failed", key)
	}
}
