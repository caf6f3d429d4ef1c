package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"catalog_back_end/internal/errutil"
	"catalog_back_end/internal/models"
)

// ErrImagesUnavailable est renvoyée quand aucun stockage d'images n'est configuré.
var ErrImagesUnavailable = errors.New("stockage d'images non configuré")

type ProductStore interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductCache est un cache de lecture ; ses erreurs ne font jamais échouer une requête.
type ProductCache interface {
	GetList(ctx context.Context) ([]models.Product, bool)
	SetList(ctx context.Context, products []models.Product)
	GetProduct(ctx context.Context, id string) (*models.Product, bool)
	SetProduct(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context, id string)
}

type SearchIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]models.Product, error)
}

type ImageStore interface {
	Upload(ctx context.Context, productID, filename, contentType string, size int64, r io.Reader) (string, error)
}

// Catalog orchestre le dépôt produits et ses effets de bord optionnels
// (cache Redis, index Elasticsearch, images MinIO). Chaque dépendance optionnelle peut être nil.
type Catalog struct {
	products ProductStore
	cache    ProductCache
	index    SearchIndex
	images   ImageStore
	logger   *slog.Logger
}

type CatalogOption func(*Catalog)

func WithCache(c ProductCache) CatalogOption { return func(cat *Catalog) { cat.cache = c } }
func WithSearch(i SearchIndex) CatalogOption { return func(cat *Catalog) { cat.index = i } }
func WithImages(s ImageStore) CatalogOption  { return func(cat *Catalog) { cat.images = s } }

func NewCatalog(products ProductStore, logger *slog.Logger, opts ...CatalogOption) *Catalog {
	c := &Catalog{products: products, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) List(ctx context.Context) ([]models.Product, error) {
	if c.cache != nil {
		if cached, ok := c.cache.GetList(ctx); ok {
			return cached, nil
		}
	}
	products, err := c.products.List(ctx)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.SetList(ctx, products)
	}
	return products, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.Product, error) {
	if c.cache != nil {
		if cached, ok := c.cache.GetProduct(ctx, id); ok {
			return cached, nil
		}
	}
	p, err := c.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.SetProduct(ctx, p)
	}
	return p, nil
}

func (c *Catalog) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := c.products.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	c.afterWrite(ctx, p)
	return p, nil
}

func (c *Catalog) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	p, err := c.products.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.afterWrite(ctx, p)
	return p, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.products.Delete(ctx, id); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Invalidate(ctx, id)
	}
	if c.index != nil {
		if err := c.index.Remove(ctx, id); err != nil {
			errutil.LogError(c.logger, "⚠️ Suppression de l'index Elasticsearch échouée", err)
		}
	}
	return nil
}

// Search interroge Elasticsearch en priorité et retombe sur un filtre en mémoire
// si l'index est absent, en erreur ou vide.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.Product, error) {
	if c.index != nil {
		results, err := c.index.Search(ctx, query)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		if err != nil {
			errutil.LogError(c.logger, "⚠️ Recherche Elasticsearch indisponible, repli sur le store", err)
		}
	}

	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]models.Product, 0)
	for _, p := range all {
		if containsIgnoreCase(p.Name, query) || containsIgnoreCase(p.Description, query) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// AddImage envoie l'image dans le stockage objet puis ajoute son URL au produit.
func (c *Catalog) AddImage(ctx context.Context, id, filename, contentType string, size int64, r io.Reader) (*models.Product, error) {
	if c.images == nil {
		return nil, ErrImagesUnavailable
	}
	p, err := c.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := c.images.Upload(ctx, id, filename, contentType, size, r)
	if err != nil {
		return nil, err
	}
	images := append(append([]string{}, p.Images...), url)
	return c.Update(ctx, id, models.ProductPatch{Images: &images})
}

func (c *Catalog) afterWrite(ctx context.Context, p *models.Product) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, p.ID)
	}
	if c.index != nil {
		if err := c.index.Index(ctx, p); err != nil {
			errutil.LogError(c.logger, "⚠️ Indexation Elasticsearch échouée", err)
		}
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
