package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/cache"
	"github.com/lepoa-store/club-api/internal/config"
	"github.com/lepoa-store/club-api/internal/http/api/admin/handlers"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/models"
	"github.com/lepoa-store/club-api/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers the back-office API.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, catalog *cache.Catalog, clock clockwork.Clock) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	rewardHandler := handlers.NewRewardHandler(db, catalog)
	authed.GET("/rewards", rewardHandler.List)
	authed.POST("/rewards", rewardHandler.Create)
	authed.PUT("/rewards/:id", rewardHandler.Update)
	authed.DELETE("/rewards/:id", rewardHandler.Delete)

	giftRuleHandler := handlers.NewGiftRuleHandler(db, catalog)
	authed.GET("/gift-rules", giftRuleHandler.List)
	authed.POST("/gift-rules", giftRuleHandler.Create)
	authed.PUT("/gift-rules/:id", giftRuleHandler.Update)
	authed.DELETE("/gift-rules/:id", giftRuleHandler.Delete)

	ledger := loyalty.NewLedger(db, clock)
	accrual := loyalty.NewAccrual(db, ledger, clock)
	orderHandler := handlers.NewOrderHandler(db, accrual, clock)
	authed.GET("/orders", orderHandler.List)
	authed.POST("/orders/:id/mark-paid", orderHandler.MarkPaid)
	authed.PUT("/orders/:id/status", orderHandler.UpdateStatus)

	couponHandler := handlers.NewCouponHandler(loyalty.NewRedeemer(db, ledger, clock))
	authed.POST("/coupons/:code/use", couponHandler.Use)

	pointsHandler := handlers.NewPointsHandler(db, ledger)
	authed.GET("/customers/:customer_id/points", pointsHandler.Account)
	authed.GET("/customers/:customer_id/points/ledger", pointsHandler.Ledger)
	authed.POST("/customers/:customer_id/points/adjust", pointsHandler.Adjust)

	settingsHandler := handlers.NewSettingsHandler(db)
	authed.GET("/settings", settingsHandler.Get)
	authed.PUT("/settings", settingsHandler.Update)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Next()
	}
}
