package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode vérifie que err est une erreur oops portant le code attendu.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "erreur oops attendue, reçu %T", err)
	assert.Equal(t, code, oopsErr.Code())
}
