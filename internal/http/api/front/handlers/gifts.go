package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lepoa-store/club-api/internal/gifts"
)

// GiftHandler exposes gift-with-purchase evaluation to the cart.
type GiftHandler struct {
	evaluator *gifts.Evaluator
}

// NewGiftHandler constructs a GiftHandler.
func NewGiftHandler(evaluator *gifts.Evaluator) *GiftHandler {
	return &GiftHandler{evaluator: evaluator}
}

// Evaluate returns the gift lines for a cart total and channel. The cart
// calls this on every total change and replaces its gift lines with the
// response.
func (h *GiftHandler) Evaluate(c *gin.Context) {
	rawTotal := strings.TrimSpace(c.Query("total"))
	if rawTotal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing total"})
		return
	}
	total, errParse := strconv.ParseFloat(rawTotal, 64)
	if errParse != nil || total < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid total"})
		return
	}
	channel := strings.TrimSpace(c.DefaultQuery("channel", "site"))

	applied, errEval := h.evaluator.Evaluate(c.Request.Context(), total, channel)
	if errEval != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluate gifts failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gifts": applied})
}
