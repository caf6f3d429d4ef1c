package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/auth"
)

const testSecret = "test-secret-key"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTokens(t *testing.T) (*auth.TokenService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenService(testSecret, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return tokens, clock
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := auth.NewTokenService("")
	assert.ErrorIs(t, err, auth.ErrMissingSecret)
}

func TestIssueValidateRoundTrip(t *testing.T) {
	tokens, _ := newTokens(t)

	for _, subject := range []string{"admin", "élodie", "a b c"} {
		token, err := tokens.Issue(subject)
		require.NoError(t, err)

		got, err := tokens.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, subject, got)
	}
}

func TestValidateExpiry(t *testing.T) {
	tokens, clock := newTokens(t)
	token, err := tokens.Issue("admin")
	require.NoError(t, err)

	clock.Advance(auth.TokenTTL - time.Second)
	_, err = tokens.Validate(token)
	require.NoError(t, err, "still valid one second before expiry")

	clock.Advance(time.Second)
	_, err = tokens.Validate(token)
	assert.ErrorIs(t, err, auth.ErrExpired)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestValidateTamperedSignature(t *testing.T) {
	tokens, clock := newTokens(t)
	token, err := tokens.Issue("admin")
	require.NoError(t, err)

	tampered := tamperSignature(token)

	_, err = tokens.Validate(tampered)
	assert.ErrorIs(t, err, auth.ErrSignatureInvalid)

	t.Run("signature is checked before expiry", func(t *testing.T) {
		clock.Advance(48 * time.Hour)
		_, err := tokens.Validate(tampered)
		assert.ErrorIs(t, err, auth.ErrSignatureInvalid)
		assert.NotErrorIs(t, err, auth.ErrExpired)
	})
}

func TestValidateOtherSecret(t *testing.T) {
	tokens, _ := newTokens(t)
	other, err := auth.NewTokenService("another-secret")
	require.NoError(t, err)

	token, err := other.Issue("admin")
	require.NoError(t, err)

	_, err = tokens.Validate(token)
	assert.ErrorIs(t, err, auth.ErrSignatureInvalid)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	tokens, _ := newTokens(t)
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Validate(unsigned)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = tokens.Validate(hs512)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestValidateMalformed(t *testing.T) {
	tokens, _ := newTokens(t)

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "not-a-token", "a.b.c"} {
			_, err := tokens.Validate(raw)
			assert.ErrorIs(t, err, auth.ErrMalformed, raw)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrMalformed)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "admin"}).
			SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrMalformed)
	})
}

// tamperSignature change le premier caractère de la signature, qui porte 6 bits significatifs.
func tamperSignature(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}
