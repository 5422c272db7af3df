package handlers

import "github.com/gin-gonic/gin"

// getCustomerID extracts the authenticated customer ID from gin context.
func getCustomerID(c *gin.Context) uint64 {
	val, exists := c.Get("customerID")
	if !exists {
		return 0
	}
	switch v := val.(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case uint:
		return uint64(v)
	case int:
		return uint64(v)
	default:
		return 0
	}
}
