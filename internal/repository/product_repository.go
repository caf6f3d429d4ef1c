package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"catalog_back_end/internal/docstore"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/normalize"
)

// ProductRepository gère le CRUD des documents produits.
// Chaque opération est un seul appel au store : pas de transaction ni de retry.
type ProductRepository struct {
	coll  docstore.Collection
	now   func() time.Time
	newID func() string
}

type ProductOption func(*ProductRepository)

func WithClock(now func() time.Time) ProductOption {
	return func(r *ProductRepository) { r.now = now }
}

func WithIDGenerator(newID func() string) ProductOption {
	return func(r *ProductRepository) { r.newID = newID }
}

func NewProductRepository(store docstore.Store, opts ...ProductOption) *ProductRepository {
	r := &ProductRepository{
		coll:  store.Collection(ProductsCollection),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	return r.coll.EnsureUniqueIndex(ctx, "id")
}

// List renvoie tous les produits dans l'ordre natif du store.
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	docs, err := r.coll.FindMany(ctx, docstore.Filter{}, listLimit)
	if err != nil {
		return nil, oops.Code("PRODUCT_LIST_FAILED").Wrap(err)
	}
	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	doc, err := r.coll.FindOne(ctx, docstore.Filter{"id": id})
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, oops.Code("PRODUCT_GET_FAILED").With("product_id", id).Wrap(err)
	}
	return decodeProduct(doc)
}

// Create génère l'id et des horodatages created_at == updated_at.
func (r *ProductRepository) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	now := r.now().UTC()
	p := &models.Product{
		ID:          r.newID(),
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Images:      nonNilImages(in.Images),
		Variants:    nonNilVariants(in.Variants),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.coll.InsertOne(ctx, normalize.ToStorage(productDocument(p))); err != nil {
		return nil, oops.Code("PRODUCT_CREATE_FAILED").With("product_id", p.ID).Wrap(err)
	}
	return p, nil
}

// Update n'écrit que les champs fournis dans patch et rafraîchit toujours updated_at.
func (r *ProductRepository) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	set := patchDocument(patch)
	set["updated_at"] = r.now().UTC()

	matched, err := r.coll.UpdateOne(ctx, docstore.Filter{"id": id}, normalize.ToStorage(set))
	if err != nil {
		return nil, oops.Code("PRODUCT_UPDATE_FAILED").With("product_id", id).Wrap(err)
	}
	if matched == 0 {
		return nil, notFound(id)
	}
	return r.Get(ctx, id)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.coll.DeleteOne(ctx, docstore.Filter{"id": id})
	if err != nil {
		return oops.Code("PRODUCT_DELETE_FAILED").With("product_id", id).Wrap(err)
	}
	if deleted == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id string) error {
	return oops.Code("PRODUCT_NOT_FOUND").With("product_id", id).Wrap(ErrNotFound)
}

func decodeProduct(doc docstore.Document) (*models.Product, error) {
	var p models.Product
	if err := docstore.Decode(normalize.FromStorage(doc), &p); err != nil {
		return nil, oops.Code("PRODUCT_DECODE_FAILED").With("product_id", doc["id"]).Wrap(err)
	}
	p.Images = nonNilImages(p.Images)
	p.Variants = nonNilVariants(p.Variants)
	return &p, nil
}

func productDocument(p *models.Product) docstore.Document {
	return docstore.Document{
		"id":          p.ID,
		"name":        p.Name,
		"price":       p.Price,
		"description": p.Description,
		"images":      imagesValue(p.Images),
		"variants":    variantsValue(p.Variants),
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

func patchDocument(patch models.ProductPatch) docstore.Document {
	set := docstore.Document{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Images != nil {
		set["images"] = imagesValue(*patch.Images)
	}
	if patch.Variants != nil {
		set["variants"] = variantsValue(*patch.Variants)
	}
	return set
}

func imagesValue(images []string) []any {
	out := make([]any, len(images))
	for i, img := range images {
		out[i] = img
	}
	return out
}

func variantsValue(variants []models.Variant) []any {
	out := make([]any, len(variants))
	for i, v := range variants {
		out[i] = map[string]any{
			"size":      optional(v.Size),
			"color":     optional(v.Color),
			"inventory": v.Inventory,
		}
	}
	return out
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}

func nonNilVariants(variants []models.Variant) []models.Variant {
	if variants == nil {
		return []models.Variant{}
	}
	return variants
}
