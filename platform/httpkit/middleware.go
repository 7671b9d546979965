package httpkit

import (
	"net/http"
	"time"

	"qr_generator_client/platform/csrf"
	"qr_generator_client/platform/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		log.APIRequest(c.Request.Method, path, c.Writer.Status(), float64(latency.Milliseconds()))
	}
}

// RequireCSRF rejects unsafe requests whose X-CSRFToken header does not match
// the token cookie, the double-submit check the QR backend performs.
func RequireCSRF(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookie, err := c.Cookie(cookieName)
		header := c.GetHeader(csrf.HeaderName)
		if err != nil || cookie == "" || header != cookie {
			CSRFFailure(c)
			return
		}

		c.Next()
	}
}
