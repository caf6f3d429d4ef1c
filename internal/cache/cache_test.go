package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/cache"
	"catalog_back_end/internal/models"
)

func TestProductKey(t *testing.T) {
	assert.Equal(t, "product:abc", cache.ProductKey("abc"))
}

// Sans Redis joignable, le cache se comporte comme un cache toujours vide.
func TestProductCacheDegradesWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewProductCache(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.SetList(ctx, []models.Product{{ID: "p1"}})
		c.SetProduct(ctx, &models.Product{ID: "p1"})
		c.Invalidate(ctx, "p1")
	})

	_, ok := c.GetList(ctx)
	assert.False(t, ok)
	_, ok = c.GetProduct(ctx, "p1")
	assert.False(t, ok)
}

// fakeRedis implémente les commandes utilisées par le cache ; les autres paniquent.
type fakeRedis struct {
	redis.Cmdable

	values map[string]string
	ttls   map[string]time.Duration
	dels   [][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.dels = append(f.dels, keys)
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestProductCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	c := cache.NewProductCache(client, 10*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, ok := c.GetList(ctx)
	assert.False(t, ok, "empty cache is a miss")

	size := "M"
	created := time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC)
	shirt := models.Product{
		ID: "p1", Name: "Shirt", Price: 19.99, Description: "Cotton",
		Images:    []string{"https://cdn.example/p1.jpg"},
		Variants:  []models.Variant{{Size: &size, Inventory: 5}},
		CreatedAt: created, UpdatedAt: created,
	}

	c.SetList(ctx, []models.Product{shirt})
	c.SetProduct(ctx, &shirt)
	assert.Equal(t, 10*time.Minute, client.ttls[cache.ProductListKey])
	assert.Equal(t, 10*time.Minute, client.ttls[cache.ProductKey("p1")])

	list, ok := c.GetList(ctx)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, shirt.Name, list[0].Name)
	assert.True(t, created.Equal(list[0].CreatedAt))

	got, ok := c.GetProduct(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, shirt.Images, got.Images)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "M", *got.Variants[0].Size)
	assert.Nil(t, got.Variants[0].Color)

	c.Invalidate(ctx, "p1")
	assert.Equal(t, [][]string{{cache.ProductListKey, "product:p1"}}, client.dels)
	_, ok = c.GetList(ctx)
	assert.False(t, ok)
	_, ok = c.GetProduct(ctx, "p1")
	assert.False(t, ok)
}

func TestProductCacheIgnoresCorruptEntries(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	client.values[cache.ProductKey("p1")] = "{not json"
	c := cache.NewProductCache(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, ok := c.GetProduct(ctx, "p1")
	assert.False(t, ok)
}
