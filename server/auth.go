package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// bearerAuth accepts requests carrying "Authorization: Bearer <secret>".
// A missing or malformed header is 401, a wrong token 403.
func bearerAuth(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authorization token is missing or malformed"})
			return
		}
		token := []byte(strings.TrimSpace(header[len("Bearer "):]))
		if subtle.ConstantTimeCompare(token, want) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid authorization token"})
			return
		}
		c.Next()
	}
}
