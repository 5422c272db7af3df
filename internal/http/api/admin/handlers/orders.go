package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrderHandler handles admin order operations, including the paid transition
// that feeds the points ledger.
type OrderHandler struct {
	db      *gorm.DB
	accrual *loyalty.Accrual
	clock   clockwork.Clock
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB, accrual *loyalty.Accrual, clock clockwork.Clock) *OrderHandler {
	return &OrderHandler{db: db, accrual: accrual, clock: clock}
}

// List returns orders newest-first, optionally filtered by status.
func (h *OrderHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Order("created_at DESC")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if errFind := query.Limit(200).Find(&orders).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query orders failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// MarkPaid confirms an order's payment and grants its purchase points.
//
// The status transition and the grant are separate steps on purpose: the
// grant is idempotent on the order id, so a crash between the two is healed
// by calling MarkPaid again.
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	var order models.Order
	if errFind := h.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query order failed"})
		return
	}
	if order.Status == models.OrderStatusCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "order is cancelled"})
		return
	}

	if order.Status != models.OrderStatusPaid {
		now := h.clock.Now().UTC()
		errUpdate := h.db.WithContext(ctx).Model(&order).
			Updates(map[string]any{"status": models.OrderStatusPaid, "paid_at": now}).Error
		if errUpdate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update order failed"})
			return
		}
	}

	points, errAccrue := h.accrual.OnOrderPaid(ctx, order.ID)
	if errAccrue != nil {
		// The order is already paid; points can be re-granted by retrying.
		log.WithError(errAccrue).Errorf("admin: accrual failed for order %s", order.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order paid but points grant failed, retry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             order.ID,
		"status":         models.OrderStatusPaid,
		"points_granted": points,
	})
}

// UpdateStatus moves an order through the post-payment fulfillment statuses.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID := c.Param("id")
	var body struct {
		Status string `json:"status"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	status := strings.TrimSpace(body.Status)
	switch status {
	case models.OrderStatusShipped, models.OrderStatusDelivered, models.OrderStatusCancelled:
	case models.OrderStatusPaid:
		c.JSON(http.StatusBadRequest, gin.H{"error": "use the mark-paid endpoint"})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update order failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": orderID, "status": status})
}
