package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"catalog_back_end/internal/auth"
	"catalog_back_end/internal/docstore"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/repository"
)

// AdminStore est le sous-ensemble du dépôt admin utilisé par l'amorçage et le login.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
}

// EnsureAdmin crée l'admin d'amorçage s'il n'existe pas encore.
// Sans identifiants configurés, rien n'est créé : aucun compte par défaut n'est jamais installé.
// Un admin existant n'est jamais écrasé.
func EnsureAdmin(ctx context.Context, admins AdminStore, hasher auth.PasswordHasher, username, password string, logger *slog.Logger) (bool, error) {
	if username == "" || password == "" {
		logger.Warn("⚠️ ADMIN_USERNAME ou ADMIN_PASSWORD non défini : aucun admin par défaut créé")
		return false, nil
	}

	_, err := admins.FindByUsername(ctx, username)
	if err == nil {
		logger.Info("ℹ️ Admin déjà présent, aucune création", "username", username)
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, oops.Code("BOOTSTRAP_HASH_FAILED").With("username", username).Wrap(err)
	}
	if err := admins.Create(ctx, &models.Admin{Username: username, PasswordHash: hash}); err != nil {
		// Une autre instance a créé le même admin entre la lecture et l'insertion.
		if errors.Is(err, docstore.ErrDuplicateKey) {
			logger.Info("ℹ️ Admin créé par une autre instance, aucune création", "username", username)
			return false, nil
		}
		return false, err
	}

	logger.Info("✅ Admin par défaut créé", "username", username)
	return true, nil
}
