package middleware

import (
	"crypto/subtle"
	"net/http"

	"classbook/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware guards admin routes with the configured static admin token.
// An empty token locks the admin routes entirely.
func JWTAuthAdminMiddleware(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Missing or invalid Authorization header"})
			return
		}

		if adminToken == "" || subtle.ConstantTimeCompare([]byte(tokenString), []byte(adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Unauthorized admin access"})
			return
		}

		c.Set("isAdmin", true)
		c.Next()
	}
}
