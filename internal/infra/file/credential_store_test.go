package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kibaro-cli/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStoreLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewCredentialStore(path)
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "missing file means anonymous")

	creds := domain.Credentials{
		Token: "tok-awa",
		User:  &domain.User{ID: "u1", Username: "awa", Role: domain.RoleAdmin, Points: 7, Level: 2},
	}
	require.NoError(t, store.Save(ctx, creds))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, creds.Token, got.Token)
	assert.Equal(t, *creds.User, *got.User)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing twice is fine")
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, ok, err := NewCredentialStore(path).Load(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}
