package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"catalog_back_end/internal/config"
	"catalog_back_end/internal/docstore"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
	scyllaTimeout   = 5 * time.Second
	scyllaNumConns  = 20
)

// Clients regroupe les connexions ouvertes au démarrage.
// Redis, Elastic et MinIO restent nil lorsqu'ils ne sont pas configurés.
type Clients struct {
	Store   docstore.Store
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client

	logger *slog.Logger
}

// Connect ouvre le stockage de documents puis les services optionnels.
// Le stockage est obligatoire : une erreur interrompt le démarrage.
// Les services optionnels injoignables sont désactivés avec un avertissement.
func Connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	c := &Clients{Store: store, logger: logger}
	c.Redis = connectRedis(ctx, cfg, logger)
	c.Elastic = connectElastic(ctx, cfg, logger)
	c.MinIO = connectMinIO(ctx, cfg, logger)
	return c, nil
}

// Close ferme toutes les connexions et agrège les erreurs éventuelles.
func (c *Clients) Close(ctx context.Context) error {
	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.logger != nil {
		c.logger.Info("🔌 Connexions fermées")
	}
	return errors.Join(errs...)
}

// OpenStore ouvre uniquement le stockage de documents et vérifie qu'il répond.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (docstore.Store, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pingWithRetry(ctx, logger, cfg.StoreDriver, store.Ping); err != nil {
		_ = store.Close(ctx)
		return nil, oops.Code("DATABASE_UNREACHABLE").With("driver", cfg.StoreDriver).Wrap(err)
	}
	logger.Info("✅ Connecté au stockage de documents", "driver", cfg.StoreDriver)
	return store, nil
}

func openStore(ctx context.Context, cfg config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return docstore.ConnectMongo(ctx, cfg.MongoURL, cfg.DBName)
	case config.StoreScylla:
		return docstore.ConnectScylla(docstore.ScyllaConfig{
			Hosts:    cfg.ScyllaHosts,
			Keyspace: cfg.ScyllaKeyspace,
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
			Timeout:  scyllaTimeout,
			NumConns: scyllaNumConns,
		})
	case config.StoreMemory:
		return docstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("STORE_DRIVER inconnu: %q", cfg.StoreDriver)
	}
}

// pingWithRetry réessaie ping avec un backoff exponentiel borné.
func pingWithRetry(ctx context.Context, logger *slog.Logger, name string, ping func(context.Context) error) error {
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			logger.Warn("⚠️ Service injoignable, nouvel essai", "service", name, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func connectRedis(ctx context.Context, cfg config.Config, logger *slog.Logger) *redis.Client {
	if cfg.RedisHost == "" {
		logger.Info("ℹ️ REDIS_HOST absent, cache désactivé")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := pingWithRetry(ctx, logger, "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		logger.Warn("⚠️ Redis injoignable, cache désactivé", "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("✅ Connecté à Redis", "addr", cfg.RedisHost)
	return client
}

func connectElastic(ctx context.Context, cfg config.Config, logger *slog.Logger) *elasticsearch.Client {
	if cfg.ElasticURL == "" {
		logger.Info("ℹ️ ELASTIC_URL absent, recherche locale uniquement")
		return nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		logger.Warn("⚠️ Erreur création client Elasticsearch", "error", err)
		return nil
	}
	if err := pingWithRetry(ctx, logger, "elasticsearch", func(ctx context.Context) error {
		res, err := client.Info(client.Info.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch: %s", res.Status())
		}
		return nil
	}); err != nil {
		logger.Warn("⚠️ Elasticsearch injoignable, recherche locale uniquement", "error", err)
		return nil
	}
	logger.Info("✅ Connecté à Elasticsearch", "url", cfg.ElasticURL)
	return client
}

func connectMinIO(ctx context.Context, cfg config.Config, logger *slog.Logger) *minio.Client {
	if cfg.MinIOEndpoint == "" {
		logger.Info("ℹ️ MINIO_ENDPOINT absent, upload d'images désactivé")
		return nil
	}
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		logger.Warn("⚠️ Erreur création client MinIO", "error", err)
		return nil
	}

	var exists bool
	if err := pingWithRetry(ctx, logger, "minio", func(ctx context.Context) error {
		exists, err = client.BucketExists(ctx, cfg.MinIOBucket)
		return err
	}); err != nil {
		logger.Warn("⚠️ MinIO injoignable, upload d'images désactivé", "error", err)
		return nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			logger.Warn("⚠️ Erreur création bucket MinIO, upload d'images désactivé", "bucket", cfg.MinIOBucket, "error", err)
			return nil
		}
		logger.Info("🪣 Bucket créé", "bucket", cfg.MinIOBucket)
	} else {
		logger.Info("🪣 Bucket MinIO déjà présent", "bucket", cfg.MinIOBucket)
	}

	logger.Info("✅ Connecté à MinIO", "endpoint", cfg.MinIOEndpoint)
	return client
}
