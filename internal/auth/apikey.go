// Package auth guards the content-generation API with a single shared
// service key. There are no user accounts; whoever holds the key may
// drive persona and render workflows.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const keyHeader = "X-API-Key"

// APIKeyMiddleware rejects requests that do not carry the configured
// key. An empty key disables the check, which is how local development
// and the test suite run.
func APIKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		got := requestKey(c)
		if got == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid API key",
			})
			return
		}

		c.Next()
	}
}

// requestKey reads the key from the X-API-Key header, falling back to
// an Authorization bearer token for clients that cannot set custom
// headers.
func requestKey(c *gin.Context) string {
	if k := c.GetHeader(keyHeader); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}
