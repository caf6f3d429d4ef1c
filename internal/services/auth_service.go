package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"catalog_back_end/internal/auth"
	"catalog_back_end/internal/repository"
)

// LoginResult est la réponse d'un login admin réussi.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// AuthService vérifie les identifiants admin et délivre les tokens.
type AuthService struct {
	admins AdminStore
	hasher auth.PasswordHasher
	tokens *auth.TokenService
	logger *slog.Logger

	// dummyHash est vérifié quand l'utilisateur n'existe pas, pour que les deux échecs
	// coûtent le même temps.
	dummyHash string
}

func NewAuthService(admins AdminStore, hasher auth.PasswordHasher, tokens *auth.TokenService, logger *slog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash("catalog-dummy-password")
	if err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH_FAILED").Wrap(err)
	}
	return &AuthService{admins: admins, hasher: hasher, tokens: tokens, logger: logger, dummyHash: dummy}, nil
}

// Login renvoie auth.ErrInvalidCredentials pour un utilisateur inconnu comme pour
// un mauvais mot de passe.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		s.hasher.Verify(password, s.dummyHash)
		return nil, auth.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}
	if s.hasher.NeedsRehash(admin.PasswordHash) {
		s.logger.Warn("⚠️ Hash de mot de passe hérité (bcrypt), réinitialisation recommandée", "username", admin.Username)
	}

	token, err := s.tokens.Issue(admin.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer", Username: admin.Username}, nil
}
