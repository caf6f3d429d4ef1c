package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/docstore"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/repository"
	"catalog_back_end/internal/services"
)

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the admin when absent", func(t *testing.T) {
		admins := repository.NewAdminRepository(docstore.NewMemoryStore())
		hasher := fastHasher()

		created, err := services.EnsureAdmin(ctx, admins, hasher, "root", "s3cret", discardLogger())
		require.NoError(t, err)
		assert.True(t, created)

		admin, err := admins.FindByUsername(ctx, "root")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret", admin.PasswordHash)
		assert.True(t, hasher.Verify("s3cret", admin.PasswordHash))
	})

	t.Run("is idempotent and never overwrites", func(t *testing.T) {
		admins := repository.NewAdminRepository(docstore.NewMemoryStore())
		hasher := fastHasher()

		_, err := services.EnsureAdmin(ctx, admins, hasher, "root", "first", discardLogger())
		require.NoError(t, err)
		created, err := services.EnsureAdmin(ctx, admins, hasher, "root", "second", discardLogger())
		require.NoError(t, err)
		assert.False(t, created)

		admin, err := admins.FindByUsername(ctx, "root")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("first", admin.PasswordHash))
		assert.False(t, hasher.Verify("second", admin.PasswordHash))

		n, err := admins.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("missing credentials create nothing", func(t *testing.T) {
		for _, creds := range [][2]string{{"", ""}, {"root", ""}, {"", "pw"}} {
			admins := repository.NewAdminRepository(docstore.NewMemoryStore())

			created, err := services.EnsureAdmin(ctx, admins, fastHasher(), creds[0], creds[1], discardLogger())
			require.NoError(t, err)
			assert.False(t, created)

			n, err := admins.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		}
	})

	t.Run("losing an insert race counts as already present", func(t *testing.T) {
		repo := repository.NewAdminRepository(docstore.NewMemoryStore())
		require.NoError(t, repo.EnsureIndexes(ctx))
		hasher := fastHasher()

		_, err := services.EnsureAdmin(ctx, repo, hasher, "root", "first", discardLogger())
		require.NoError(t, err)

		created, err := services.EnsureAdmin(ctx, staleReadAdmins{repo}, hasher, "root", "second", discardLogger())
		require.NoError(t, err)
		assert.False(t, created)

		admin, err := repo.FindByUsername(ctx, "root")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("first", admin.PasswordHash))
	})

	t.Run("concurrent startups create a single admin", func(t *testing.T) {
		repo := repository.NewAdminRepository(docstore.NewMemoryStore())
		require.NoError(t, repo.EnsureIndexes(ctx))
		hasher := fastHasher()

		const instances = 8
		var wg sync.WaitGroup
		errs := make(chan error, instances)
		for range instances {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := services.EnsureAdmin(ctx, repo, hasher, "root", "pw", discardLogger())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("store failures propagate", func(t *testing.T) {
		boom := errors.New("store down")
		_, err := services.EnsureAdmin(ctx, failingAdmins{err: boom}, fastHasher(), "root", "pw", discardLogger())
		assert.ErrorIs(t, err, boom)
	})
}

// staleReadAdmins ne voit jamais l'admin existant, comme une instance qui a lu
// juste avant l'insertion d'une autre.
type staleReadAdmins struct{ *repository.AdminRepository }

func (staleReadAdmins) FindByUsername(context.Context, string) (*models.Admin, error) {
	return nil, repository.ErrNotFound
}

type failingAdmins struct{ err error }

func (f failingAdmins) FindByUsername(context.Context, string) (*models.Admin, error) {
	return nil, f.err
}

func (f failingAdmins) Create(context.Context, *models.Admin) error { return f.err }
