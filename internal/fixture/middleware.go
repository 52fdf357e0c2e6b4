package fixture

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CSRF names used by the demo server.
const (
	CookieName = "csrftoken"
	HeaderName = "X-CSRFToken"
)

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// CSRF rejects unsafe requests whose header token does not match the token
// cookie, or whose token was never issued.
func CSRF(cookieName, headerName string, issued func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "csrf cookie missing"})
			return
		}
		header := c.GetHeader(headerName)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "csrf header missing"})
			return
		}
		if header != cookie || !issued(cookie) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "csrf token mismatch"})
			return
		}
		c.Next()
	}
}
