package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"catalog_back_end/internal/docstore"
	"catalog_back_end/internal/models"
)

// AdminRepository persiste les identifiants administrateur.
type AdminRepository struct {
	coll docstore.Collection
}

func NewAdminRepository(store docstore.Store) *AdminRepository {
	return &AdminRepository{coll: store.Collection(AdminsCollection)}
}

// EnsureIndexes pose l'unicité sur id et username.
func (r *AdminRepository) EnsureIndexes(ctx context.Context) error {
	for _, field := range []string{"id", "username"} {
		if err := r.coll.EnsureUniqueIndex(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	doc, err := r.coll.FindOne(ctx, docstore.Filter{"username": username})
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, oops.Code("ADMIN_NOT_FOUND").With("username", username).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ADMIN_LOOKUP_FAILED").With("username", username).Wrap(err)
	}

	var admin models.Admin
	if err := docstore.Decode(doc, &admin); err != nil {
		return nil, oops.Code("ADMIN_DECODE_FAILED").With("username", username).Wrap(err)
	}
	return &admin, nil
}

// Create insère admin ; un ID est généré s'il est vide.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	doc := docstore.Document{
		"id":            admin.ID,
		"username":      admin.Username,
		"password_hash": admin.PasswordHash,
	}
	if err := r.coll.InsertOne(ctx, doc); err != nil {
		return oops.Code("ADMIN_CREATE_FAILED").With("username", admin.Username).Wrap(err)
	}
	return nil
}

func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.Count(ctx, docstore.Filter{})
	if err != nil {
		return 0, oops.Code("ADMIN_COUNT_FAILED").Wrap(err)
	}
	return n, nil
}
