package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuditMutations trace les écritures effectuées par un administrateur authentifié.
// À placer après AuthRequired.
func AuditMutations(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}
		principal, ok := PrincipalFrom(c)
		if !ok {
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			return
		}
		logger.Info("📝 Audit modification catalogue",
			"admin", principal.Username,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"product_id", c.Param("id"),
			"status", status,
		)
	}
}
