package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lepoa-store/club-api/internal/loyalty"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PointsHandler handles admin inspection and manual adjustment of loyalty
// accounts.
type PointsHandler struct {
	db     *gorm.DB
	ledger *loyalty.Ledger
}

// NewPointsHandler constructs a PointsHandler.
func NewPointsHandler(db *gorm.DB, ledger *loyalty.Ledger) *PointsHandler {
	return &PointsHandler{db: db, ledger: ledger}
}

// Account returns a customer's balance, annual points and tier placement.
func (h *PointsHandler) Account(c *gin.Context) {
	ctx := c.Request.Context()
	customerID, errParse := strconv.ParseUint(c.Param("customer_id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	account, errAccount := h.ledger.Account(ctx, customerID)
	if errAccount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load account failed"})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
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
	tiers, errTiers := loyalty.LoadTiers(ctx, h.db)
	if errTiers != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load tiers failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id":     account.ID,
		"customer_id":    account.CustomerID,
		"current_points": current,
		"annual_points":  annual,
		"tier":           loyalty.TierFor(tiers, annual).ID,
	})
}

// adjustRequest captures a manual points adjustment.
type adjustRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// Adjust grants or debits points manually. Positive amounts grant with the
// standard validity window; negative amounts debit and fail when the balance
// cannot cover them.
func (h *PointsHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()
	customerID, errParse := strconv.ParseUint(c.Param("customer_id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	var body adjustRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Amount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be non-zero"})
		return
	}

	account, errAccount := h.ledger.EnsureAccount(ctx, customerID)
	if errAccount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load account failed"})
		return
	}

	adjustmentID := uuid.NewString()
	var errAdjust error
	if body.Amount > 0 {
		errAdjust = h.ledger.GrantAdjustment(ctx, account.ID, body.Amount, adjustmentID)
	} else {
		errAdjust = h.ledger.DebitAdjustment(ctx, account.ID, -body.Amount, adjustmentID)
	}
	if errAdjust != nil {
		if errors.Is(errAdjust, loyalty.ErrInsufficientPoints) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient points"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		return
	}

	log.Infof("admin: adjusted customer %d by %d points (%s)", customerID, body.Amount, body.Reason)
	c.JSON(http.StatusOK, gin.H{
		"adjustment_id": adjustmentID,
		"amount":        body.Amount,
	})
}

// Ledger lists a customer's ledger entries newest-first.
func (h *PointsHandler) Ledger(c *gin.Context) {
	ctx := c.Request.Context()
	customerID, errParse := strconv.ParseUint(c.Param("customer_id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	account, errAccount := h.ledger.Account(ctx, customerID)
	if errAccount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load account failed"})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	entries, errEntries := h.ledger.Entries(ctx, account.ID)
	if errEntries != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load ledger failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
