package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	ua "github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs each request with latency, status and the caller's
// device family parsed from the User-Agent header.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		parser := ua.New(c.Request.UserAgent())
		browser, _ := parser.Browser()

		deviceType := "desktop"
		if parser.Bot() {
			deviceType = "bot"
		} else if parser.Mobile() {
			deviceType = "mobile"
		}

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"latency_ms":  time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"device_type": deviceType,
			"os":          parser.OS(),
			"browser":     browser,
		}).Info("request completed")
	}
}
