package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/cache"
	"github.com/lepoa-store/club-api/internal/config"
	"github.com/lepoa-store/club-api/internal/gifts"
	"github.com/lepoa-store/club-api/internal/http/api/front/handlers"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/models"
	"github.com/lepoa-store/club-api/internal/security"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers public and authenticated storefront routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, catalog *cache.Catalog, clock clockwork.Clock) {
	if r == nil || db == nil {
		return
	}

	front := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)

	ledger := loyalty.NewLedger(db, clock)
	redeemer := loyalty.NewRedeemer(db, ledger, clock)
	clubHandler := handlers.NewClubHandler(db, ledger, redeemer, catalog)
	front.GET("/club/tiers", clubHandler.Tiers)

	giftHandler := handlers.NewGiftHandler(gifts.NewEvaluator(catalog))
	front.GET("/gifts/evaluate", giftHandler.Evaluate)

	// The thank-you page polls before the customer session is restored, so
	// reconciliation stays public.
	orderHandler := handlers.NewOrderHandler(db, clock)
	front.GET("/orders/reconcile", orderHandler.Reconcile)
	front.GET("/orders/reconcile/await", orderHandler.Await)

	authed := front.Group("")
	authed.Use(customerAuthMiddleware(db, jwtCfg))

	authed.GET("/club/dashboard", clubHandler.Dashboard)
	authed.GET("/club/rewards", clubHandler.Rewards)
	authed.POST("/club/rewards/:id/redeem", clubHandler.Redeem)
	authed.GET("/club/redemptions", clubHandler.Redemptions)

	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/:id", orderHandler.Detail)
}

// customerAuthMiddleware validates customer JWTs and loads the customer into
// context.
func customerAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseCustomerToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var customer models.Customer
		if errFind := db.WithContext(c.Request.Context()).First(&customer, claims.CustomerID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "customer not found"})
			return
		}
		if !customer.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set("customerID", customer.ID)
		c.Next()
	}
}
