package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrUnauthenticated regroupe toutes les causes d'échec d'authentification.
// Les erreurs ci-dessous l'enveloppent pour que la frontière HTTP les traite à l'identique.
var ErrUnauthenticated = errors.New("non authentifié")

var (
	ErrSignatureInvalid   = fmt.Errorf("%w: signature invalide", ErrUnauthenticated)
	ErrExpired            = fmt.Errorf("%w: token expiré", ErrUnauthenticated)
	ErrMalformed          = fmt.Errorf("%w: token mal formé", ErrUnauthenticated)
	ErrInvalidCredentials = fmt.Errorf("%w: identifiants invalides", ErrUnauthenticated)
)

// ErrEmptyPassword est renvoyée quand on tente de hasher un mot de passe vide.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("le mot de passe ne peut pas être vide")
