package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog_back_end/internal/auth"
	"catalog_back_end/internal/errutil"
	"catalog_back_end/internal/middleware"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/repository"
	"catalog_back_end/internal/services"
)

const (
	msgProductNotFound    = "Produit introuvable"
	msgInvalidCredentials = "Identifiants invalides"
	msgImagesUnavailable  = "Stockage d'images indisponible"
	msgInternal           = "Erreur interne du serveur"
	msgInvalidProduct     = "Données produit invalides : name, description et price (>= 0) sont requis"
	msgMissingCredentials = "Nom d'utilisateur et mot de passe requis"
)

// respondError traduit une erreur métier en réponse HTTP {"error": ...}.
// Les erreurs inattendues sont journalisées et masquées derrière un 500 générique.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgProductNotFound})
	case errors.Is(err, models.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.ReplaceAll(err.Error(), "\n", ": ")})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
	case errors.Is(err, auth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": middleware.InvalidTokenMessage})
	case errors.Is(err, services.ErrImagesUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgImagesUnavailable})
	default:
		errutil.LogError(logger, "❌ Erreur interne", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

// badRequest répond 400 avec un message fixe ; le détail du décodage reste dans les logs.
func badRequest(c *gin.Context, logger *slog.Logger, msg string, err error) {
	logger.Debug("❌ Corps de requête invalide", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
