// Package cache fournit un cache de lecture Redis pour le catalogue.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog_back_end/internal/models"
)

const (
	ProductListKey   = "products:all"
	productKeyPrefix = "product:"
)

// ProductCache met en cache la liste complète et les fiches produit.
// Une erreur Redis est journalisée puis traitée comme un défaut de cache.
type ProductCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewProductCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ProductCache {
	return &ProductCache{client: client, ttl: ttl, logger: logger}
}

func ProductKey(id string) string {
	return productKeyPrefix + id
}

func (c *ProductCache) GetList(ctx context.Context) ([]models.Product, bool) {
	var products []models.Product
	if !c.get(ctx, ProductListKey, &products) {
		return nil, false
	}
	return products, true
}

func (c *ProductCache) SetList(ctx context.Context, products []models.Product) {
	c.set(ctx, ProductListKey, products)
}

func (c *ProductCache) GetProduct(ctx context.Context, id string) (*models.Product, bool) {
	var p models.Product
	if !c.get(ctx, ProductKey(id), &p) {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) SetProduct(ctx context.Context, p *models.Product) {
	c.set(ctx, ProductKey(p.ID), p)
}

// Invalidate supprime la fiche du produit et la liste complète.
func (c *ProductCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, ProductListKey, ProductKey(id)).Err(); err != nil {
		c.logger.Warn("⚠️ Invalidation du cache Redis échouée", "product_id", id, "error", err)
	}
}

func (c *ProductCache) get(ctx context.Context, key string, dest any) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("⚠️ Lecture du cache Redis échouée", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.logger.Warn("⚠️ Entrée de cache illisible", "key", key, "error", err)
		return false
	}
	return true
}

func (c *ProductCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("⚠️ Écriture du cache Redis échouée", "key", key, "error", err)
	}
}
