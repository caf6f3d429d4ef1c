package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// InvalidTokenMessage est renvoyé pour toute erreur de jeton, quelle qu'en soit la cause.
const InvalidTokenMessage = "Token invalide"

// TokenValidator vérifie un jeton porteur et renvoie son sujet.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Principal identifie l'administrateur authentifié pour la requête en cours.
type Principal struct {
	Username string
}

// AuthRequired exige un en-tête "Authorization: Bearer <jwt>" valide.
func AuthRequired(validator TokenValidator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("❌ Header Authorization absent ou mal formé", "path", c.FullPath())
			abortUnauthorized(c)
			return
		}

		username, err := validator.Validate(token)
		if err != nil {
			logger.Info("❌ Jeton refusé", "path", c.FullPath(), "error", err)
			abortUnauthorized(c)
			return
		}

		c.Set(principalKey, Principal{Username: username})
		c.Next()
	}
}

// PrincipalFrom renvoie l'administrateur posé par AuthRequired.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": InvalidTokenMessage})
}
