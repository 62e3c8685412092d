package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/service"
)

const callerKey = "caller"

// Caller authenticates the bearer token and stores the caller address.
// The core trusts this address; it never sees the token.
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		caller, err := service.ParseCallerToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the address stored by Caller.
func CallerFrom(c *gin.Context) (domain.Address, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return "", false
	}
	caller, ok := v.(domain.Address)
	return caller, ok && !caller.IsZero()
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
