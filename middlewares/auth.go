package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"inventory-service/services"
	"inventory-service/utils"

	"github.com/gin-gonic/gin"
)

// AccountKey is the gin context key holding the authenticated account id.
const AccountKey = "accountID"

// AuthMiddleware resolves the account from a Bearer token. With trustHeader set,
// an X-User-ID header from the gateway is accepted instead.
func AuthMiddleware(secret string, trustHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if trustHeader {
			if raw := c.GetHeader("X-User-ID"); raw != "" {
				accountID, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || accountID <= 0 {
					unauthorized(c, "invalid X-User-ID header")
					return
				}
				c.Set(AccountKey, accountID)
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization header required")
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			unauthorized(c, "invalid token format")
			return
		}

		accountID, err := utils.ParseToken(tokenString, secret)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(AccountKey, accountID)
		c.Next()
	}
}

// AccountID returns the account set by AuthMiddleware.
func AccountID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(AccountKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "kind": services.KindUnauthenticated})
}
