package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lepoa-store/club-api/internal/models"
	"github.com/lepoa-store/club-api/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsHandler handles the database-backed loyalty tunables.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get returns the effective tunables, defaults filled in.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		settings.PointsValidityDaysKey:      settings.PointsValidityDays(),
		settings.CouponValidityDaysKey:      settings.CouponValidityDays(),
		settings.ReconcileBackoffSecondsKey: settings.ReconcileBackoffSeconds(),
		settings.ReconcileMaxAttemptsKey:    settings.ReconcileMaxAttempts(),
	})
}

// updateSettingsRequest carries the tunables an admin wants to change. Nil
// fields stay untouched.
type updateSettingsRequest struct {
	PointsValidityDays      *int `json:"points_validity_days"`
	CouponValidityDays      *int `json:"coupon_validity_days"`
	ReconcileBackoffSeconds *int `json:"reconcile_backoff_seconds"`
	ReconcileMaxAttempts    *int `json:"reconcile_max_attempts"`
}

// Update upserts the supplied tunables and refreshes the in-memory snapshot.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	changes := map[string]*int{
		settings.PointsValidityDaysKey:      body.PointsValidityDays,
		settings.CouponValidityDaysKey:      body.CouponValidityDays,
		settings.ReconcileBackoffSecondsKey: body.ReconcileBackoffSeconds,
		settings.ReconcileMaxAttemptsKey:    body.ReconcileMaxAttempts,
	}
	for key, value := range changes {
		if value == nil {
			continue
		}
		if *value <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be positive"})
			return
		}
	}

	ctx := c.Request.Context()
	for key, value := range changes {
		if value == nil {
			continue
		}
		payload, errEncode := json.Marshal(*value)
		if errEncode != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encode setting failed"})
			return
		}
		row := models.Setting{Key: key, Value: payload}
		errUpsert := h.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).
			Create(&row).Error
		if errUpsert != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save setting failed"})
			return
		}
	}

	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, h.db); errRefresh != nil {
		log.WithError(errRefresh).Warn("admin: settings snapshot refresh failed")
	}
	h.Get(c)
}
