package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/util"
	log "github.com/sirupsen/logrus"
)

// CouponHandler consumes redemption coupons presented at checkout.
type CouponHandler struct {
	redeemer *loyalty.Redeemer
}

// NewCouponHandler constructs a CouponHandler.
func NewCouponHandler(redeemer *loyalty.Redeemer) *CouponHandler {
	return &CouponHandler{redeemer: redeemer}
}

// Use marks a coupon as used. Expired and already-used coupons are rejected
// without changing state.
func (h *CouponHandler) Use(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing coupon code"})
		return
	}

	if errUse := h.redeemer.MarkCouponUsed(c.Request.Context(), code); errUse != nil {
		if errors.Is(errUse, loyalty.ErrRewardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "coupon not active"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "consume coupon failed"})
		return
	}

	log.Infof("admin: coupon %s consumed", util.MaskCoupon(code))
	c.JSON(http.StatusOK, gin.H{"status": "used"})
}
