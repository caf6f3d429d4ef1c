package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog_back_end/internal/auth"
	"catalog_back_end/internal/middleware"
	"catalog_back_end/internal/services"
)

// Authenticator vérifie des identifiants admin et délivre un jeton.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
}

type AuthHandler struct {
	auth    Authenticator
	metrics *middleware.Metrics
	logger  *slog.Logger
}

// NewAuthHandler construit les handlers d'authentification admin. metrics peut être nil.
func NewAuthHandler(authenticator Authenticator, metrics *middleware.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authenticator, metrics: metrics, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// 🔐 POST /admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, msgMissingCredentials, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.metrics.ObserveLogin(middleware.LoginFailure)
			h.logger.Info("❌ Échec de connexion admin", "username", input.Username)
		} else {
			h.metrics.ObserveLogin(middleware.LoginError)
		}
		respondError(c, h.logger, err)
		return
	}

	h.metrics.ObserveLogin(middleware.LoginSuccess)
	h.logger.Info("✅ Connexion admin", "username", result.Username)
	c.JSON(http.StatusOK, result)
}

// GET /admin/verify : le middleware a déjà validé le jeton.
func (h *AuthHandler) Verify(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		respondError(c, h.logger, auth.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": principal.Username, "valid": true})
}
