// Package auth regroupe le hachage des mots de passe et les tokens de session admin.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Paramètres Argon2id par défaut : ~15-20ms par hash, bon compromis pour un login admin.
const (
	DefaultArgon2Time    = 1
	DefaultArgon2Memory  = 32 * 1024 // KiB
	DefaultArgon2Threads = 4

	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// PasswordHasher hache et vérifie des mots de passe.
type PasswordHasher interface {
	// Hash produit un hash salé ; deux appels sur le même mot de passe diffèrent.
	Hash(password string) (string, error)
	// Verify renvoie false pour un mauvais mot de passe comme pour un hash illisible.
	Verify(password, encodedHash string) bool
	// NeedsRehash indique un hash produit par un autre algorithme (bcrypt hérité).
	NeedsRehash(encodedHash string) bool
}

// Argon2Params est le facteur de travail d'Argon2id.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: DefaultArgon2Time, Memory: DefaultArgon2Memory, Threads: DefaultArgon2Threads}
}

// Argon2idHasher implémente PasswordHasher avec Argon2id et vérifie aussi les hash bcrypt
// de l'ancienne version du service.
type Argon2idHasher struct {
	params Argon2Params
}

func NewArgon2idHasher(params Argon2Params) *Argon2idHasher {
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		params = DefaultArgon2Params()
	}
	return &Argon2idHasher{params: params}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, argon2KeyLen)

	// Format PHC : $argon2id$v=19$m=32768,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	if IsBcryptHash(encodedHash) {
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	}

	params, salt, expected, ok := parseArgon2id(encodedHash)
	if !ok {
		return false
	}
	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(expected)))

	// Comparaison en temps constant
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func (h *Argon2idHasher) NeedsRehash(encodedHash string) bool {
	return !strings.HasPrefix(encodedHash, "$argon2id$")
}

// IsBcryptHash reconnaît les préfixes bcrypt ($2a$, $2b$, $2y$).
func IsBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func parseArgon2id(encodedHash string) (Argon2Params, []byte, []byte, bool) {
	var params Argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, false
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return params, nil, nil, false
	}
	if memory == 0 || iterations == 0 || threads == 0 || threads > 255 {
		return params, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1024 {
		return params, nil, nil, false
	}

	params = Argon2Params{Time: iterations, Memory: memory, Threads: uint8(threads)}
	return params, salt, key, true
}
