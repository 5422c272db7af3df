package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/models"
	"github.com/lepoa-store/club-api/internal/reconcile"
	"gorm.io/gorm"
)

// OrderHandler serves customer order history and post-checkout
// reconciliation.
type OrderHandler struct {
	db      *gorm.DB
	clock   clockwork.Clock
	watcher *reconcile.Watcher
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB, clock clockwork.Clock) *OrderHandler {
	return &OrderHandler{db: db, clock: clock, watcher: reconcile.NewWatcher(db, clock)}
}

// List returns the authenticated customer's orders newest-first.
func (h *OrderHandler) List(c *gin.Context) {
	var orders []models.Order
	errFind := h.db.WithContext(c.Request.Context()).
		Where("customer_id = ?", getCustomerID(c)).
		Order("created_at DESC").
		Find(&orders).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load orders failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Detail returns one order with its items, scoped to the customer.
func (h *OrderHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	var order models.Order
	errFind := h.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", orderID, getCustomerID(c)).
		First(&order).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load order failed"})
		return
	}

	var items []models.OrderItem
	if errItems := h.db.WithContext(ctx).Where("order_id = ?", order.ID).Find(&items).Error; errItems != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load order items failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

// Reconcile runs one poll step for a checkout reference. The thank-you page
// calls it repeatedly; the non-terminal states tell it to keep polling.
func (h *OrderHandler) Reconcile(c *gin.Context) {
	ref := reconcile.Reference{
		OrderID:    strings.TrimSpace(c.Query("order_id")),
		LiveCartID: strings.TrimSpace(c.Query("live_cart_id")),
	}
	update, errPoll := h.watcher.Poll(c.Request.Context(), ref)
	if errPoll != nil {
		if errors.Is(errPoll, reconcile.ErrInvalidReference) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of order_id or live_cart_id is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
		return
	}
	c.JSON(http.StatusOK, update)
}

// Await long-polls a checkout reference until it reaches a terminal state or
// the retry bound runs out. Closing the request cancels the watch.
func (h *OrderHandler) Await(c *gin.Context) {
	ref := reconcile.Reference{
		OrderID:    strings.TrimSpace(c.Query("order_id")),
		LiveCartID: strings.TrimSpace(c.Query("live_cart_id")),
	}
	// Each request gets its own watcher: references from different
	// customers must never supersede each other.
	watcher := reconcile.NewWatcher(h.db, h.clock)
	updates, errWatch := watcher.SetReference(c.Request.Context(), ref)
	if errWatch != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of order_id or live_cart_id is required"})
		return
	}

	var last reconcile.Update
	for update := range updates {
		last = update
	}
	if last.State == "" {
		// Superseded by a newer reference or client gone.
		c.JSON(http.StatusConflict, gin.H{"error": "reconciliation cancelled"})
		return
	}
	c.JSON(http.StatusOK, last)
}
