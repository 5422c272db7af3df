package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lepoa-store/club-api/internal/cache"
	"github.com/lepoa-store/club-api/internal/models"
	"gorm.io/gorm"
)

// GiftRuleHandler handles admin CRUD for gift-with-purchase rules.
type GiftRuleHandler struct {
	db      *gorm.DB
	catalog *cache.Catalog
}

// NewGiftRuleHandler constructs a GiftRuleHandler.
func NewGiftRuleHandler(db *gorm.DB, catalog *cache.Catalog) *GiftRuleHandler {
	return &GiftRuleHandler{db: db, catalog: catalog}
}

// giftRuleRequest captures the payload for creating or updating a rule.
type giftRuleRequest struct {
	MinCartTotal  float64 `json:"min_cart_total"`
	GiftProductID string  `json:"gift_product_id"`
	GiftName      string  `json:"gift_name"`
	GiftImage     string  `json:"gift_image"`
	Qty           *int    `json:"qty"`
	Channel       *string `json:"channel"`
	Stackable     *bool   `json:"stackable"`
	IsActive      *bool   `json:"is_active"`
}

func (r *giftRuleRequest) validate(c *gin.Context) bool {
	if r.MinCartTotal <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_cart_total must be positive"})
		return false
	}
	if strings.TrimSpace(r.GiftProductID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing gift_product_id"})
		return false
	}
	if strings.TrimSpace(r.GiftName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing gift_name"})
		return false
	}
	if r.Qty != nil && *r.Qty <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "qty must be positive"})
		return false
	}
	return true
}

func (r *giftRuleRequest) apply(rule *models.GiftRule) {
	rule.MinCartTotal = r.MinCartTotal
	rule.GiftProductID = strings.TrimSpace(r.GiftProductID)
	rule.GiftName = strings.TrimSpace(r.GiftName)
	rule.GiftImage = strings.TrimSpace(r.GiftImage)
	if r.Qty != nil {
		rule.Qty = *r.Qty
	} else if rule.Qty == 0 {
		rule.Qty = 1
	}
	rule.Channel = r.Channel
	if r.Stackable != nil {
		rule.Stackable = *r.Stackable
	}
	if r.IsActive != nil {
		rule.IsActive = *r.IsActive
	}
}

// List returns every gift rule ordered by threshold.
func (h *GiftRuleHandler) List(c *gin.Context) {
	var rules []models.GiftRule
	if errFind := h.db.WithContext(c.Request.Context()).Order("min_cart_total ASC").Find(&rules).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query gift rules failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gift_rules": rules})
}

// Create persists a new gift rule.
func (h *GiftRuleHandler) Create(c *gin.Context) {
	var body giftRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !body.validate(c) {
		return
	}

	rule := models.GiftRule{IsActive: true}
	body.apply(&rule)
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&rule).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create gift rule failed"})
		return
	}
	h.catalog.InvalidateGiftRules(c.Request.Context())
	c.JSON(http.StatusCreated, rule)
}

// Update replaces a gift rule's fields.
func (h *GiftRuleHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body giftRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !body.validate(c) {
		return
	}

	var rule models.GiftRule
	if errFind := h.db.WithContext(c.Request.Context()).First(&rule, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gift rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query gift rule failed"})
		return
	}

	body.apply(&rule)
	if errSave := h.db.WithContext(c.Request.Context()).Save(&rule).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update gift rule failed"})
		return
	}
	h.catalog.InvalidateGiftRules(c.Request.Context())
	c.JSON(http.StatusOK, rule)
}

// Delete removes a gift rule. Rules carry no history, so a hard delete is
// safe.
func (h *GiftRuleHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	result := h.db.WithContext(c.Request.Context()).Delete(&models.GiftRule{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete gift rule failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "gift rule not found"})
		return
	}
	h.catalog.InvalidateGiftRules(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
