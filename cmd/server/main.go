package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"catalog_back_end/internal/auth"
	"catalog_back_end/internal/cache"
	"catalog_back_end/internal/config"
	"catalog_back_end/internal/database"
	"catalog_back_end/internal/handlers"
	"catalog_back_end/internal/middleware"
	"catalog_back_end/internal/repository"
	"catalog_back_end/internal/routes"
	"catalog_back_end/internal/services"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	config.LoadDotEnv(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("❌ Configuration invalide", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("❌ Arrêt du serveur sur erreur", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hasher := auth.NewArgon2idHasher(auth.Argon2Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2Memory,
		Threads: cfg.Argon2Threads,
	})
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	clients, err := database.Connect(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := clients.Close(closeCtx); err != nil {
			logger.Warn("⚠️ Fermeture des connexions incomplète", "error", err)
		}
	}()

	admins := repository.NewAdminRepository(clients.Store)
	products := repository.NewProductRepository(clients.Store)
	if err := admins.EnsureIndexes(startCtx); err != nil {
		return err
	}
	if err := products.EnsureIndexes(startCtx); err != nil {
		return err
	}
	if _, err := services.EnsureAdmin(startCtx, admins, hasher, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		return err
	}

	authService, err := services.NewAuthService(admins, hasher, tokens, logger)
	if err != nil {
		return err
	}
	catalog := services.NewCatalog(products, logger, catalogOptions(cfg, clients, logger)...)
	warmupCache(startCtx, catalog, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	gin.SetMode(cfg.GinMode)
	engine := routes.NewEngine(routes.Dependencies{
		Products:    handlers.NewProductHandler(catalog, logger),
		Auth:        handlers.NewAuthHandler(authService, metrics, logger),
		Tokens:      tokens,
		Store:       clients.Store,
		Metrics:     metrics,
		Gatherer:    registry,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 Serveur catalogue lancé", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("🛑 Signal d'arrêt reçu, arrêt en cours")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// catalogOptions branche les services optionnels effectivement connectés.
func catalogOptions(cfg config.Config, clients *database.Clients, logger *slog.Logger) []services.CatalogOption {
	var opts []services.CatalogOption
	if clients.Redis != nil {
		opts = append(opts, services.WithCache(cache.NewProductCache(clients.Redis, cfg.CacheTTL, logger)))
	}
	if clients.Elastic != nil {
		opts = append(opts, services.WithSearch(services.NewElasticIndex(clients.Elastic, cfg.ElasticIndex)))
	}
	if clients.MinIO != nil {
		opts = append(opts, services.WithImages(services.NewMinioImageStore(clients.MinIO, cfg.MinIOBucket)))
	}
	return opts
}

// warmupCache charge la liste des produits une première fois pour remplir le cache.
func warmupCache(ctx context.Context, catalog *services.Catalog, logger *slog.Logger) {
	list, err := catalog.List(ctx)
	if err != nil {
		logger.Warn("⚠️ Pré-chargement du catalogue échoué", "error", err)
		return
	}
	logger.Info("🔥 Catalogue pré-chargé", "products", len(list))
}
