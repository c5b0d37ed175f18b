package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// staffUserKey is the gin context key carrying the authenticated staff user
const staffUserKey = "staff_user"

// intakeAuthMiddleware guards the machine-to-machine intake endpoints with a
// shared bearer secret
func intakeAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid or missing intake credential",
				Code:    "Unauthorized",
			})
			return
		}
		c.Next()
	}
}

// staffAuthMiddleware requires the staff identity header set by the upstream
// gateway and makes it available to handlers as the acting user
func staffAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader("X-Staff-User"))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing staff identity",
				Code:    "Unauthorized",
			})
			return
		}
		c.Set(staffUserKey, user)
		c.Next()
	}
}

// staffUser returns the acting staff user set by staffAuthMiddleware
func staffUser(c *gin.Context) string {
	return c.GetString(staffUserKey)
}
