package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "hash-password", "--memory", "64", "--threads", "1", "s3cret!")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)
	assert.True(t, auth.NewArgon2idHasher(auth.Argon2Params{}).Verify("s3cret!", hash))
}

func TestHashPasswordRequiresArgument(t *testing.T) {
	_, err := execute(t, "hash-password")
	assert.Error(t, err)
}

func TestCreateAdmin(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ARGON2_MEMORY_KIB", "64")
	t.Setenv("ARGON2_THREADS", "1")

	out, err := execute(t, "create-admin", "--username", "root", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, `admin "root" créé`)

	_, err = execute(t, "create-admin")
	assert.Error(t, err, "no credentials from flags or environment")
}
