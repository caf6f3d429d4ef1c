package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"catalog_back_end/internal/handlers"
	"catalog_back_end/internal/middleware"
)

// Dependencies regroupe ce dont le routeur a besoin. Metrics et Gatherer sont optionnels.
type Dependencies struct {
	Products    *handlers.ProductHandler
	Auth        *handlers.AuthHandler
	Tokens      middleware.TokenValidator
	Store       handlers.Pinger
	Metrics     *middleware.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewEngine construit le moteur gin avec les middlewares globaux et toutes les routes.
func NewEngine(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}
	r.Use(cors.New(corsConfig(deps.CORSOrigins)))

	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/healthz", handlers.Health(deps.Store))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	// Public (vitrine)
	api.GET("/products", deps.Products.List)
	api.GET("/products/search", deps.Products.Search)
	api.GET("/products/:id", deps.Products.Get)

	// Admin
	api.POST("/admin/login", deps.Auth.Login)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(deps.Tokens, deps.Logger))
	admin.Use(middleware.AuditMutations(deps.Logger))
	{
		admin.GET("/verify", deps.Auth.Verify)
		admin.GET("/products", deps.Products.List)
		admin.POST("/products", deps.Products.Create)
		admin.PUT("/products/:id", deps.Products.Update)
		admin.DELETE("/products/:id", deps.Products.Delete)
		admin.POST("/products/:id/images", deps.Products.UploadImage)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
