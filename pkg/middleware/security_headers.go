package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds security-related HTTP headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking by disallowing iframe embedding
		c.Writer.Header().Set("X-Frame-Options", "DENY")

		// Enable browser's XSS protection
		c.Writer.Header().Set("X-XSS-Protection", "1; mode=block")

		// Enforce HTTPS and set HSTS; max-age is 1 year
		c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		// Referrer Policy - don't send referrer to cross-origin requests
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}
