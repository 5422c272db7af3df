package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lepoa-store/club-api/internal/cache"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/models"
	"gorm.io/gorm"
)

// ClubHandler serves the loyalty club surface: dashboard, reward catalog,
// redemption and coupon history.
type ClubHandler struct {
	db       *gorm.DB
	ledger   *loyalty.Ledger
	redeemer *loyalty.Redeemer
	catalog  *cache.Catalog
}

// NewClubHandler constructs a ClubHandler.
func NewClubHandler(db *gorm.DB, ledger *loyalty.Ledger, redeemer *loyalty.Redeemer, catalog *cache.Catalog) *ClubHandler {
	return &ClubHandler{db: db, ledger: ledger, redeemer: redeemer, catalog: catalog}
}

// Dashboard returns the customer's balance, tier placement and progress.
func (h *ClubHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	customerID := getCustomerID(c)

	tiers, errTiers := loyalty.LoadTiers(ctx, h.db)
	if errTiers != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load tiers failed"})
		return
	}

	featured, errFeatured := h.featuredRewards(c)
	if errFeatured != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load rewards failed"})
		return
	}

	account, errAccount := h.ledger.Account(ctx, customerID)
	if errAccount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load account failed"})
		return
	}
	if account == nil {
		// Never purchased: base tier, empty history.
		base := tiers[0]
		c.JSON(http.StatusOK, gin.H{
			"current_points":   0,
			"annual_points":    0,
			"tier":             tierPayload(base),
			"progress":         loyalty.ProgressToNext(tiers, 0),
			"expiring_soon":    0,
			"featured_rewards": featured,
		})
		return
	}

	current, errCurrent := h.ledger.CurrentPoints(ctx, account.ID)
	if errCurrent != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load balance failed"})
		return
	}
	annual, errAnnual := h.ledger.AnnualPoints(ctx, account.ID)
	if errAnnual != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load annual points failed"})
		return
	}
	expiring, errExpiring := h.ledger.ExpiringWithin(ctx, account.ID, 30)
	if errExpiring != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load expiring points failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"current_points":   current,
		"annual_points":    annual,
		"tier":             tierPayload(loyalty.TierFor(tiers, annual)),
		"progress":         loyalty.ProgressToNext(tiers, annual),
		"expiring_soon":    expiring,
		"featured_rewards": featured,
	})
}

// featuredRewards filters the cached catalog down to the club page highlights.
func (h *ClubHandler) featuredRewards(c *gin.Context) ([]models.Reward, error) {
	rewards, errRewards := h.catalog.ActiveRewards(c.Request.Context())
	if errRewards != nil {
		return nil, errRewards
	}
	featured := make([]models.Reward, 0, len(rewards))
	for _, reward := range rewards {
		if reward.IsFeatured {
			featured = append(featured, reward)
		}
	}
	return featured, nil
}

// Tiers returns the full tier ladder for the club page.
func (h *ClubHandler) Tiers(c *gin.Context) {
	tiers, errTiers := loyalty.LoadTiers(c.Request.Context(), h.db)
	if errTiers != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load tiers failed"})
		return
	}
	payload := make([]gin.H, 0, len(tiers))
	for _, tier := range tiers {
		payload = append(payload, tierPayload(tier))
	}
	c.JSON(http.StatusOK, gin.H{"tiers": payload})
}

// Rewards lists the active reward catalog.
func (h *ClubHandler) Rewards(c *gin.Context) {
	rewards, errRewards := h.catalog.ActiveRewards(c.Request.Context())
	if errRewards != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load rewards failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// Redeem exchanges points for a reward coupon.
func (h *ClubHandler) Redeem(c *gin.Context) {
	rewardID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward id"})
		return
	}

	redemption, errRedeem := h.redeemer.Redeem(c.Request.Context(), getCustomerID(c), rewardID)
	if errRedeem != nil {
		switch {
		case errors.Is(errRedeem, loyalty.ErrRewardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
		case errors.Is(errRedeem, loyalty.ErrTierNotEligible):
			c.JSON(http.StatusForbidden, gin.H{"error": "tier not eligible"})
		case errors.Is(errRedeem, loyalty.ErrInsufficientPoints):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient points"})
		case errors.Is(errRedeem, loyalty.ErrConcurrencyConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "redeem failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          redemption.ID,
		"coupon_code": redemption.CouponCode,
		"cost_points": redemption.CostPoints,
		"expires_at":  redemption.ExpiresAt,
	})
}

// Redemptions lists the customer's coupon history.
func (h *ClubHandler) Redemptions(c *gin.Context) {
	ctx := c.Request.Context()
	account, errAccount := h.ledger.Account(ctx, getCustomerID(c))
	if errAccount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load account failed"})
		return
	}
	if account == nil {
		c.JSON(http.StatusOK, gin.H{"redemptions": []models.Redemption{}})
		return
	}

	redemptions, errList := h.redeemer.Redemptions(ctx, account.ID)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load redemptions failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": redemptions})
}

func tierPayload(tier models.Tier) gin.H {
	return gin.H{
		"id":         tier.ID,
		"name":       tier.Name,
		"min_points": tier.MinPoints,
		"multiplier": tier.Multiplier,
		"color":      tier.Color,
		"benefits":   tier.Benefits,
	}
}
