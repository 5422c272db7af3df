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

// RewardHandler handles admin CRUD for the reward catalog.
type RewardHandler struct {
	db      *gorm.DB
	catalog *cache.Catalog
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(db *gorm.DB, catalog *cache.Catalog) *RewardHandler {
	return &RewardHandler{db: db, catalog: catalog}
}

// rewardRequest captures the payload for creating or updating a reward.
type rewardRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	CostPoints      int64   `json:"cost_points"`
	TierRequirement *string `json:"tier_requirement"`
	IsFeatured      *bool   `json:"is_featured"`
	IsActive        *bool   `json:"is_active"`
}

func (r *rewardRequest) validate(c *gin.Context, db *gorm.DB) bool {
	if strings.TrimSpace(r.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return false
	}
	if r.CostPoints <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cost_points must be positive"})
		return false
	}
	if r.TierRequirement != nil {
		var tier models.Tier
		if errFind := db.WithContext(c.Request.Context()).Where("id = ?", *r.TierRequirement).First(&tier).Error; errFind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier_requirement"})
			return false
		}
	}
	return true
}

// List returns every reward, active or not.
func (h *RewardHandler) List(c *gin.Context) {
	var rewards []models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&rewards).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query rewards failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// Create persists a new reward.
func (h *RewardHandler) Create(c *gin.Context) {
	var body rewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !body.validate(c, h.db) {
		return
	}

	reward := models.Reward{
		Name:            strings.TrimSpace(body.Name),
		Description:     strings.TrimSpace(body.Description),
		ImageURL:        strings.TrimSpace(body.ImageURL),
		CostPoints:      body.CostPoints,
		TierRequirement: body.TierRequirement,
		IsActive:        true,
	}
	if body.IsFeatured != nil {
		reward.IsFeatured = *body.IsFeatured
	}
	if body.IsActive != nil {
		reward.IsActive = *body.IsActive
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&reward).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create reward failed"})
		return
	}
	h.catalog.InvalidateRewards(c.Request.Context())
	c.JSON(http.StatusCreated, reward)
}

// Update replaces a reward's editable fields.
func (h *RewardHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body rewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !body.validate(c, h.db) {
		return
	}

	var reward models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).First(&reward, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query reward failed"})
		return
	}

	reward.Name = strings.TrimSpace(body.Name)
	reward.Description = strings.TrimSpace(body.Description)
	reward.ImageURL = strings.TrimSpace(body.ImageURL)
	reward.CostPoints = body.CostPoints
	reward.TierRequirement = body.TierRequirement
	if body.IsFeatured != nil {
		reward.IsFeatured = *body.IsFeatured
	}
	if body.IsActive != nil {
		reward.IsActive = *body.IsActive
	}
	if errSave := h.db.WithContext(c.Request.Context()).Save(&reward).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update reward failed"})
		return
	}
	h.catalog.InvalidateRewards(c.Request.Context())
	c.JSON(http.StatusOK, reward)
}

// Delete deactivates a reward. Rows are kept so redemption history stays
// resolvable.
func (h *RewardHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	result := h.db.WithContext(c.Request.Context()).Model(&models.Reward{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate reward failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
		return
	}
	h.catalog.InvalidateRewards(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
