package services_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastHasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasher(auth.Argon2Params{Time: 1, Memory: 64, Threads: 1})
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)
	return tokens
}
