package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger journalise chaque requête HTTP une fois la réponse écrite.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("requête HTTP", attrs...)
		case status >= 400:
			logger.Warn("requête HTTP", attrs...)
		default:
			logger.Info("requête HTTP", attrs...)
		}
	}
}
