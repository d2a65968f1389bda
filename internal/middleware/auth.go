package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"digipiggy-hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware checks the static API token the companion app ships with.
// There are no user accounts, so a single bearer token guards the API. An
// empty configured token disables the check (local development).
func AuthMiddleware(apiToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiToken == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiToken)) != 1 {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid API token")
			c.Abort()
			return
		}

		c.Next()
	}
}
