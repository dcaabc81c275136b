package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"addonshub-go/internal/config"
)

// ManagementAuth guards the admin API with the configured management key,
// accepted as "Authorization: Bearer <key>" or the X-Management-Key header.
// With no key configured the guard is a no-op so local setups still work.
func ManagementAuth(cfg *config.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := cfg.Get()
		if current.ManagementKey == "" && current.ManagementKeyHash == "" {
			c.Next()
			return
		}
		token := bearerToken(c)
		if token == "" {
			token = strings.TrimSpace(c.GetHeader("X-Management-Key"))
		}
		if !config.CheckManagementKey(current, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": 0,
				"message": "invalid management key",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
