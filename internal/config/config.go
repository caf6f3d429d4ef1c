package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfigurationMissing signale une variable obligatoire absente : le serveur ne démarre pas.
var ErrConfigurationMissing = errors.New("configuration manquante")

const (
	StoreMongo  = "mongo"
	StoreScylla = "scylla"
	StoreMemory = "memory"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel slog.Level

	StoreDriver string
	MongoURL    string
	DBName      string

	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUsername string
	ScyllaPassword string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	Argon2Time    uint32
	Argon2Memory  uint32
	Argon2Threads uint8

	CORSOrigins []string

	RedisHost     string
	RedisPassword string
	CacheTTL      time.Duration

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

// LoadDotEnv charge .env s'il existe ; sinon on garde les variables du système.
func LoadDotEnv(logger *slog.Logger) {
	if err := godotenv.Load(".env"); err != nil {
		logger.Info("⚠️ Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
		return
	}
	logger.Info("✅ Fichier .env chargé avec succès")
}

// Load lit la configuration depuis l'environnement.
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup construit la configuration à partir d'une fonction de lecture de variables.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Port:        get("PORT", "8080"),
		GinMode:     get("GIN_MODE", "release"),
		StoreDriver: strings.ToLower(get("STORE_DRIVER", StoreMongo)),
		MongoURL:    get("MONGO_URL", ""),
		DBName:      get("DB_NAME", ""),

		ScyllaHosts:    splitList(get("SCYLLA_HOSTS", "")),
		ScyllaKeyspace: get("SCYLLA_KEYSPACE", ""),
		ScyllaUsername: get("SCYLLA_USERNAME", ""),
		ScyllaPassword: get("SCYLLA_PASSWORD", ""),

		JWTSecret:     get("JWT_SECRET_KEY", ""),
		AdminUsername: get("ADMIN_USERNAME", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		CORSOrigins: splitList(get("CORS_ORIGINS", "*")),

		RedisHost:     get("REDIS_HOST", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),

		ElasticURL:      get("ELASTIC_URL", ""),
		ElasticUser:     get("ELASTIC_USER", ""),
		ElasticPassword: get("ELASTIC_PASSWORD", ""),
		ElasticIndex:    get("ELASTIC_INDEX", "products"),

		MinIOEndpoint:  get("MINIO_ENDPOINT", ""),
		MinIOAccessKey: get("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: get("MINIO_SECRET_KEY", ""),
		MinIOBucket:    get("MINIO_BUCKET", "catalog-images"),
		MinIOUseSSL:    strings.EqualFold(get("MINIO_USE_SSL", "false"), "true"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("%w: JWT_SECRET_KEY", ErrConfigurationMissing)
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURL == "" || cfg.DBName == "" {
			return Config{}, fmt.Errorf("%w: MONGO_URL et DB_NAME", ErrConfigurationMissing)
		}
	case StoreScylla:
		if len(cfg.ScyllaHosts) == 0 || cfg.ScyllaKeyspace == "" {
			return Config{}, fmt.Errorf("%w: SCYLLA_HOSTS et SCYLLA_KEYSPACE", ErrConfigurationMissing)
		}
	case StoreMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER inconnu: %q", cfg.StoreDriver)
	}

	var err error
	if cfg.LogLevel, err = parseLevel(get("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = time.ParseDuration(get("CACHE_TTL", "10m")); err != nil {
		return Config{}, fmt.Errorf("CACHE_TTL invalide: %w", err)
	}

	timeCost, err := parseUint(get("ARGON2_TIME", "1"), 32)
	if err != nil {
		return Config{}, fmt.Errorf("ARGON2_TIME invalide: %w", err)
	}
	memory, err := parseUint(get("ARGON2_MEMORY_KIB", "32768"), 32)
	if err != nil {
		return Config{}, fmt.Errorf("ARGON2_MEMORY_KIB invalide: %w", err)
	}
	threads, err := parseUint(get("ARGON2_THREADS", "4"), 8)
	if err != nil {
		return Config{}, fmt.Errorf("ARGON2_THREADS invalide: %w", err)
	}
	cfg.Argon2Time, cfg.Argon2Memory, cfg.Argon2Threads = uint32(timeCost), uint32(memory), uint8(threads)

	return cfg, nil
}

// HasBootstrapAdmin indique si les deux identifiants d'amorçage sont fournis.
func (c Config) HasBootstrapAdmin() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseUint(raw string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New("doit être supérieur à zéro")
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL invalide: %w", err)
	}
	return level, nil
}
